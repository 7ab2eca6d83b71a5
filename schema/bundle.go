// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

// Part names one validatable slot of a request.
type Part string

const (
	PartParams  Part = "params"
	PartQuery   Part = "querystring"
	PartBody    Part = "body"
	PartHeaders Part = "headers"
)

// Parts returns the request parts in dispatch order. Validation always
// proceeds in this order and stops at the first failing part.
func Parts() [4]Part {
	return [4]Part{PartParams, PartQuery, PartBody, PartHeaders}
}

// Doc carries documentation metadata declared alongside the part
// descriptions. It is passed through normalization untouched so an external
// documentation renderer can consume it.
type Doc struct {
	Summary     string
	Description string
	OperationID string
	Tags        []string
	Security    []string
	Deprecated  bool
}

// Bundle is the author supplied description of one route: one optional
// [Field] per request part, one optional [Field] per response status code,
// and free form documentation metadata.
//
// Parts left unset are not validated at request time.
type Bundle struct {
	Params  Field
	Query   Field
	Body    Field
	Headers Field

	Responses map[int]Field

	Doc Doc
}

func (b *Bundle) part(p Part) Field {
	switch p {
	case PartParams:
		return b.Params
	case PartQuery:
		return b.Query
	case PartBody:
		return b.Body
	case PartHeaders:
		return b.Headers
	default:
		return Field{}
	}
}
