package multipart

import (
	"fmt"
	"reflect"
)

// Part is one section of a multipart body.
type Part struct {
	FieldName        string
	FileName         string
	ContentType      string
	TransferEncoding string
	Value            any
}

func (p Part) String() string {
	return fmt.Sprintf("Part{field=%q, file=%q, type=%q, encoding=%q, value=%v}",
		p.FieldName, p.FileName, p.ContentType, p.TransferEncoding, p.Value)
}

func (p Part) equal(o Part) bool {
	return p.FieldName == o.FieldName &&
		p.FileName == o.FileName &&
		p.ContentType == o.ContentType &&
		p.TransferEncoding == o.TransferEncoding &&
		reflect.DeepEqual(p.Value, o.Value)
}
