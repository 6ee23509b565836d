package services

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractMetadata(t *testing.T) {
	Convey("Given a Hebrew cover page", t, func() {
		text := "שם: ישראל ישראלי\nת.ז: 012345678\nתשובה לשאלה 1"

		meta := ExtractMetadata("uploads/מספר 4521.docx", text)

		Convey("Then every field is recovered", func() {
			So(meta.Filename, ShouldEqual, "מספר 4521.docx")
			So(meta.AssignmentNumber, ShouldEqual, "4521")
			So(meta.CandidateName, ShouldEqual, "ישראל ישראלי")
			So(meta.NationalID, ShouldEqual, "012345678")
		})
	})

	Convey("Given an English cover page", t, func() {
		text := "Name: John Smith\nID: 123456789\nAnswers follow"

		meta := ExtractMetadata("assignment-77.pdf", text)

		Convey("Then the English labels are understood", func() {
			So(meta.AssignmentNumber, ShouldEqual, "77")
			So(meta.CandidateName, ShouldEqual, "John Smith")
			So(meta.NationalID, ShouldEqual, "123456789")
		})
	})

	Convey("Given assignment numbers in other file name shapes", t, func() {
		So(ExtractMetadata("WorkCode_3141.docx", "").AssignmentNumber, ShouldEqual, "3141")
		So(ExtractMetadata("submission 987654321.pdf", "").AssignmentNumber, ShouldEqual, "987654321")
		So(ExtractMetadata("short 1234.pdf", "").AssignmentNumber, ShouldBeEmpty)
	})

	Convey("Given the national id only in the file name", t, func() {
		meta := ExtractMetadata("hw_ID123456789.pdf", "no identifying text")

		Convey("Then it is found there", func() {
			So(meta.NationalID, ShouldEqual, "123456789")
		})
	})

	Convey("Given quoted and spelled out id labels", t, func() {
		So(ExtractMetadata("a.pdf", `ת"ז 111111111`).NationalID, ShouldEqual, "111111111")
		So(ExtractMetadata("a.pdf", "תעודת זהות: 222222222").NationalID, ShouldEqual, "222222222")
	})

	Convey("Given a name followed by digits on the same line", t, func() {
		meta := ExtractMetadata("a.docx", "מגיש: רונית לוי 2024")

		Convey("Then the digits are cut off", func() {
			So(meta.CandidateName, ShouldEqual, "רונית לוי")
		})
	})

	Convey("Given nothing recognizable", t, func() {
		meta := ExtractMetadata("essay.docx", "lorem ipsum")

		Convey("Then the fields are empty", func() {
			So(meta.Filename, ShouldEqual, "essay.docx")
			So(meta.AssignmentNumber, ShouldBeEmpty)
			So(meta.CandidateName, ShouldBeEmpty)
			So(meta.NationalID, ShouldBeEmpty)
		})
	})

	Convey("Given the same input twice", t, func() {
		a := ExtractMetadata("assignment 5.docx", "Name: A B\nID 123456789")
		b := ExtractMetadata("assignment 5.docx", "Name: A B\nID 123456789")

		Convey("Then the results are equal", func() {
			So(a, ShouldResemble, b)
		})
	})
}
