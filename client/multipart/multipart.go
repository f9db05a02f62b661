package multipart

import (
	"slices"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const crlf = "\r\n"

// Data accumulates form fields in call order. It is not safe for
// concurrent use.
type Data struct {
	boundary string
	buf      []byte
}

// New returns an empty form with a freshly generated boundary.
func New() *Data {
	return &Data{boundary: uuid.NewString()}
}

// Boundary returns the token delimiting the form's parts.
func (d *Data) Boundary() string {
	return d.boundary
}

// ContentType returns the value for the request's Content-Type header.
func (d *Data) ContentType() string {
	return "multipart/form-data; boundary=" + d.boundary
}

// Add appends a text field. Duplicate keys are kept.
func (d *Data) Add(key, value string) {
	d.open()
	d.write(`Content-Disposition: form-data; name="` + key + `"` + crlf)
	d.write(crlf)
	d.write(value + crlf)
}

// AddFile appends a file field. An empty mimeType is detected from fileData.
func (d *Data) AddFile(key, fileName string, fileData []byte, mimeType string) {
	if mimeType == "" {
		mimeType = mimetype.Detect(fileData).String()
	}

	d.open()
	d.write(`Content-Disposition: form-data; name="` + key + `"; filename="` + fileName + `"` + crlf)
	d.write("Content-Type: " + mimeType + crlf)
	d.write(crlf)
	d.buf = append(d.buf, fileData...)
	d.write(crlf)
}

// Bytes returns the complete body, closing boundary included. The form
// itself is left open, so more fields may be added and Bytes called again.
func (d *Data) Bytes() []byte {
	body := slices.Grow(slices.Clone(d.buf), len(d.boundary)+4)
	return append(body, "--"+d.boundary+"--"...)
}

// Len reports the size of the body Bytes would return.
func (d *Data) Len() int {
	return len(d.buf) + len(d.boundary) + 4
}

func (d *Data) open() {
	d.write("--" + d.boundary + crlf)
}

func (d *Data) write(s string) {
	d.buf = append(d.buf, s...)
}
