// Package envelope writes API responses in the uniform shape
//
//	{"code": 200, "message": "Success", "data": ..., "pages": {"links": ..., "meta": ...}}
//
// where data and pages are optional.
package envelope

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/merchant-orders/internal/domain/pagination"
)

// MessageSuccess is the message of every successful response.
const MessageSuccess = "Success"

// Resource is the payload of a response.
type Resource struct {
	// Data encodes the value of the "data" field.
	Data func(e *jx.Encoder)
	// Pages is set for paginated collections.
	Pages *Pages
}

// Pages carries navigation links and metadata of a paginated collection.
type Pages struct {
	Links Links
	Meta  pagination.Meta
	// Path is the collection URL without query string.
	Path string
}

// Links are absolute page URLs. Prev and Next are empty when there is no
// such page and encode as null.
type Links struct {
	First string
	Last  string
	Prev  string
	Next  string
}

// NewPages builds Pages for meta. Page links are derived from self by
// replacing its "page" query parameter, so other parameters are preserved.
func NewPages(self *url.URL, meta pagination.Meta) *Pages {
	pageURL := func(n int) string {
		u := *self
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return u.String()
	}

	p := &Pages{
		Links: Links{
			First: pageURL(1),
			Last:  pageURL(meta.LastPage),
		},
		Meta: meta,
	}
	if meta.HasPrev() {
		p.Links.Prev = pageURL(meta.CurrentPage - 1)
	}
	if meta.HasNext() {
		p.Links.Next = pageURL(meta.CurrentPage + 1)
	}

	path := *self
	path.RawQuery = ""
	path.Fragment = ""
	p.Path = path.String()
	return p
}

// Encode writes the envelope object to e. A nil res produces an envelope
// with code and message only.
func Encode(e *jx.Encoder, code int, message string, res *Resource) {
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("message")
	e.Str(message)
	if res != nil && res.Data != nil {
		e.FieldStart("data")
		res.Data(e)
		if res.Pages != nil {
			e.FieldStart("pages")
			encodePages(e, res.Pages)
		}
	}
	e.ObjEnd()
}

// Write encodes the envelope and writes it with code as HTTP status.
func Write(w http.ResponseWriter, code int, message string, res *Resource) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	Encode(e, code, message, res)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// The status line is already sent; a failed write means the client is gone.
	_, _ = w.Write(e.Bytes())
}

// Error writes an envelope without data.
func Error(w http.ResponseWriter, code int, message string) {
	Write(w, code, message, nil)
}

func encodePages(e *jx.Encoder, p *Pages) {
	e.ObjStart()
	e.FieldStart("links")
	e.ObjStart()
	e.FieldStart("first")
	encodeOptStr(e, p.Links.First)
	e.FieldStart("last")
	encodeOptStr(e, p.Links.Last)
	e.FieldStart("prev")
	encodeOptStr(e, p.Links.Prev)
	e.FieldStart("next")
	encodeOptStr(e, p.Links.Next)
	e.ObjEnd()
	e.FieldStart("meta")
	EncodeMeta(e, p.Meta, p.Path)
	e.ObjEnd()
}

// EncodeMeta writes pagination metadata as an object. The path field is
// omitted when empty; from and to are null for an empty page.
func EncodeMeta(e *jx.Encoder, m pagination.Meta, path string) {
	e.ObjStart()
	e.FieldStart("current_page")
	e.Int(m.CurrentPage)
	e.FieldStart("from")
	encodeOptInt(e, m.From)
	e.FieldStart("last_page")
	e.Int(m.LastPage)
	if path != "" {
		e.FieldStart("path")
		e.Str(path)
	}
	e.FieldStart("per_page")
	e.Int(m.PerPage)
	e.FieldStart("to")
	encodeOptInt(e, m.To)
	e.FieldStart("total")
	e.Int(m.Total)
	e.ObjEnd()
}

func encodeOptStr(e *jx.Encoder, v string) {
	if v == "" {
		e.Null()
		return
	}
	e.Str(v)
}

func encodeOptInt(e *jx.Encoder, v int) {
	if v == 0 {
		e.Null()
		return
	}
	e.Int(v)
}
