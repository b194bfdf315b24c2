package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/onbscore/internal/adapters/ingest"
	"github.com/okian/onbscore/internal/adapters/repository"
	service "github.com/okian/onbscore/internal/app"
	"github.com/okian/onbscore/internal/domain/access"
	"github.com/okian/onbscore/internal/domain/category"
	"github.com/okian/onbscore/internal/domain/columns"
	"github.com/okian/onbscore/internal/domain/dataset"
	"github.com/okian/onbscore/internal/sampledata"
	"github.com/okian/onbscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const (
	lead   = "lead@cs.example.com"
	ana    = "ana@cs.example.com"
	bruno  = "bruno@cs.example.com"
	sample = 60
)

func sampleCSV() (*dataset.Dataset, []byte) {
	ds := sampledata.Generate(sample, 11)
	var buf bytes.Buffer
	if err := sampledata.WriteCSV(&buf, ds); err != nil {
		panic(err)
	}
	return ds, buf.Bytes()
}

func identity(email string, role access.Role, team ...string) access.Identity {
	id, err := access.NewIdentity(email, role, team)
	if err != nil {
		panic(err)
	}
	return id
}

func ownedBy(ds *dataset.Dataset, email string) []int {
	var out []int
	for _, r := range ds.Rows() {
		v, _ := r.Value(sampledata.ColOwner)
		if v.String() == email {
			out = append(out, r.Index())
		}
	}
	return out
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithMaxRows(100), service.WithSessionTTL(time.Minute))

		Convey("Operations fail before Start", func() {
			_, err := svc.Open(context.Background(), identity(ana, access.Member), "a.csv", strings.NewReader("x"))
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Start and Stop toggle the started flag", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["activeSessions"], ShouldEqual, 0)
			So(stats["maxRows"], ShouldEqual, 100)

			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_Open(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService()
		defer svc.Stop()
		ctx := context.Background()
		_, data := sampleCSV()

		Convey("A valid upload becomes a session", func() {
			up, err := svc.Open(ctx, identity(lead, access.Leader), "q1.csv", bytes.NewReader(data))
			So(err, ShouldBeNil)
			So(up.SessionID, ShouldNotBeEmpty)
			So(up.Rows, ShouldEqual, sample)
			So(up.Format, ShouldEqual, "csv")
			So(up.Resolved[columns.Owner], ShouldEqual, sampledata.ColOwner)
			So(up.Resolved[columns.Grade], ShouldEqual, sampledata.ColGrade)
			So(svc.GetStats()["activeSessions"], ShouldEqual, 1)
		})

		Convey("Missing required columns store nothing", func() {
			_, err := svc.Open(ctx, identity(lead, access.Leader), "bad.csv", strings.NewReader("name,plan\nx,starter\n"))
			So(errors.Is(err, columns.ErrMissingColumns), ShouldBeTrue)
			So(svc.GetStats()["activeSessions"], ShouldEqual, 0)
		})

		Convey("Unsupported formats are rejected", func() {
			_, err := svc.Open(ctx, identity(lead, access.Leader), "notes.txt", bytes.NewReader(data))
			So(errors.Is(err, ingest.ErrUnsupportedFormat), ShouldBeTrue)
		})
	})

	Convey("Given a service with tight limits", t, func() {
		_, data := sampleCSV()

		Convey("Oversized uploads are rejected", func() {
			svc := startService(service.WithMaxUploadBytes(64))
			defer svc.Stop()
			_, err := svc.Open(context.Background(), identity(lead, access.Leader), "q1.csv", bytes.NewReader(data))
			So(errors.Is(err, service.ErrUploadTooLarge), ShouldBeTrue)
		})

		Convey("Row ceilings are enforced", func() {
			svc := startService(service.WithMaxRows(10))
			defer svc.Stop()
			_, err := svc.Open(context.Background(), identity(lead, access.Leader), "q1.csv", bytes.NewReader(data))
			So(errors.Is(err, ingest.ErrTooManyRows), ShouldBeTrue)
		})
	})
}

func TestService_Buckets(t *testing.T) {
	Convey("Given a session opened by a leader", t, func() {
		svc := startService()
		defer svc.Stop()
		ctx := context.Background()
		ds, data := sampleCSV()
		leader := identity(lead, access.Leader, ana, bruno)

		up, err := svc.Open(ctx, leader, "q1.csv", bytes.NewReader(data))
		So(err, ShouldBeNil)

		Convey("The whole team partitions every row", func() {
			view, err := svc.Buckets(ctx, leader, up.SessionID, "")
			So(err, ShouldBeNil)
			total := 0
			for _, n := range view.Result.Counts() {
				total += n
			}
			So(total, ShouldEqual, sample)
			So(view.Scope.Owner, ShouldBeEmpty)
		})

		Convey("Selecting a member narrows to their rows", func() {
			view, err := svc.Buckets(ctx, leader, up.SessionID, ana)
			So(err, ShouldBeNil)
			So(view.Result.Total(), ShouldEqual, len(ownedBy(ds, ana)))
			So(view.Scope.Owner, ShouldEqual, ana)
		})

		Convey("Selecting someone outside the team fails", func() {
			_, err := svc.Buckets(ctx, leader, up.SessionID, "carla@cs.example.com")
			So(errors.Is(err, access.ErrNotInTeam), ShouldBeTrue)
		})

		Convey("Another viewer cannot see the session", func() {
			_, err := svc.Buckets(ctx, identity(ana, access.Member), up.SessionID, "")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("A closed session is gone", func() {
			So(svc.Close(ctx, leader, up.SessionID), ShouldBeNil)
			_, err := svc.Buckets(ctx, leader, up.SessionID, "")
			So(err, ShouldEqual, repository.ErrNotFound)
			So(svc.Close(ctx, leader, up.SessionID), ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestService_Lookup(t *testing.T) {
	Convey("Given a session opened by a member", t, func() {
		svc := startService(service.WithClock(func() time.Time {
			return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		}))
		defer svc.Stop()
		ctx := context.Background()
		ds, data := sampleCSV()
		member := identity(ana, access.Member)

		up, err := svc.Open(ctx, member, "q1.csv", bytes.NewReader(data))
		So(err, ShouldBeNil)
		mine := ownedBy(ds, ana)
		So(len(mine), ShouldBeGreaterThan, 0)

		Convey("Own rows are scored", func() {
			res, err := svc.Lookup(ctx, member, up.SessionID, "", mine[0])
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(category.Buckets(), ShouldContain, res.Bucket)
			So(res.Report.Computed, ShouldBeBetweenOrEqual, 0, res.Report.FixedMax)
			So(len(res.Report.Categories), ShouldEqual, 4)
		})

		Convey("Rows of other owners are not found", func() {
			other := -1
			for _, r := range ds.Rows() {
				if v, _ := r.Value(sampledata.ColOwner); v.String() != ana {
					other = r.Index()
					break
				}
			}
			So(other, ShouldBeGreaterThanOrEqualTo, 0)
			res, err := svc.Lookup(ctx, member, up.SessionID, "", other)
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeFalse)
		})

		Convey("Unknown rows are not found", func() {
			res, err := svc.Lookup(ctx, member, up.SessionID, "", sample+5)
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeFalse)
		})
	})
}

func TestService_StarterPlans(t *testing.T) {
	Convey("Given a service whose starter plan is vip", t, func() {
		svc := startService(service.WithStarterPlans("vip"))
		defer svc.Stop()
		ctx := context.Background()
		ds, data := sampleCSV()
		leader := identity(lead, access.Leader)

		up, err := svc.Open(ctx, leader, "q1.csv", bytes.NewReader(data))
		So(err, ShouldBeNil)
		So(svc.GetStats()["starterPlans"], ShouldResemble, []string{"vip"})

		Convey("Only vip rows drop the plan-gated criteria", func() {
			gated, full := 0, 0
			for _, r := range ds.Rows() {
				res, err := svc.Lookup(ctx, leader, up.SessionID, "", r.Index())
				So(err, ShouldBeNil)
				So(res.Found, ShouldBeTrue)
				if strings.EqualFold(res.Report.Plan, "vip") {
					gated++
					So(res.Report.Gated, ShouldBeTrue)
					So(res.Report.Max, ShouldBeLessThan, res.Report.FixedMax)
					continue
				}
				full++
				So(res.Report.Gated, ShouldBeFalse)
				So(res.Report.Max, ShouldEqual, res.Report.FixedMax)
			}
			So(gated, ShouldBeGreaterThan, 0)
			So(full, ShouldBeGreaterThan, 0)
		})
	})
}
