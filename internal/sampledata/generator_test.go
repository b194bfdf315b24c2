package sampledata_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/onbscore/internal/domain/columns"
	"github.com/okian/onbscore/internal/sampledata"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a seed", t, func() {
		a := sampledata.Generate(50, 42)
		b := sampledata.Generate(50, 42)

		Convey("Then generation is deterministic", func() {
			So(a.Len(), ShouldEqual, 50)
			for i := range a.Rows() {
				So(a.Rows()[i].Cells(), ShouldResemble, b.Rows()[i].Cells())
			}
		})

		Convey("Then every catalog key resolves", func() {
			m, err := columns.Resolve(a.Columns())
			So(err, ShouldBeNil)
			for _, spec := range columns.Catalog() {
				So(m.Has(spec.Key), ShouldBeTrue)
			}
		})

		Convey("Then owners come from the configured pool", func() {
			ds := sampledata.Generate(20, 1, sampledata.WithOwners("only@example.com"))
			m, _ := columns.Resolve(ds.Columns())
			for _, r := range ds.Rows() {
				So(m.Record(r).Text(columns.Owner), ShouldEqual, "only@example.com")
			}
		})
	})
}

func TestWriters(t *testing.T) {
	ds := sampledata.Generate(5, 3)

	Convey("Given a generated dataset", t, func() {
		Convey("When written as CSV", func() {
			var buf bytes.Buffer
			So(sampledata.WriteCSV(&buf, ds), ShouldBeNil)
			records, err := csv.NewReader(&buf).ReadAll()
			So(err, ShouldBeNil)

			Convey("Then the header and every row are present", func() {
				So(len(records), ShouldEqual, 6)
				So(records[0], ShouldResemble, sampledata.Columns())
			})
		})

		Convey("When written as XLSX", func() {
			var buf bytes.Buffer
			So(sampledata.WriteXLSX(&buf, ds), ShouldBeNil)

			Convey("Then a zip container is produced", func() {
				So(buf.Len(), ShouldBeGreaterThan, 0)
				So(buf.Bytes()[:2], ShouldResemble, []byte("PK"))
			})
		})

		Convey("When the extension is unknown", func() {
			err := sampledata.WriteFile(filepath.Join(t.TempDir(), "out.ods"), ds)
			So(errors.Is(err, sampledata.ErrUnsupportedExtension), ShouldBeTrue)
		})
	})
}
