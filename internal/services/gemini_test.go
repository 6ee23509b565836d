package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTruncateUTF8(t *testing.T) {
	Convey("Given text within the limit", t, func() {
		Convey("Then it is returned unchanged", func() {
			So(truncateUTF8("rubric", 10), ShouldEqual, "rubric")
		})
	})

	Convey("Given Hebrew text cut in the middle of a letter", t, func() {
		text := strings.Repeat("ש", 5)

		cut := truncateUTF8(text, 5)

		Convey("Then the cut backs off to the last whole letter", func() {
			So(cut, ShouldEqual, "שש")
			So(utf8.ValidString(cut), ShouldBeTrue)
		})
	})

	Convey("Given ASCII text over the limit", t, func() {
		Convey("Then it is cut at the limit", func() {
			So(truncateUTF8("abcdef", 4), ShouldEqual, "abcd")
		})
	})
}
