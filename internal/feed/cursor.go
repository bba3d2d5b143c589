package feed

// TotalUnknown marks a cursor that has not seen a response yet. Zero is a
// real value: the server reports totalPages=0 for an empty feed.
const TotalUnknown = -1

// Cursor tracks forward-only progress through the server's pages. NextPage
// only ever advances within one generation; a feed reset installs a fresh
// cursor instead of rewinding this one.
type Cursor struct {
	NextPage   int
	PageSize   int
	TotalPages int
	TotalItems int
}

func NewCursor(pageSize int) Cursor {
	return Cursor{
		NextPage:   1,
		PageSize:   pageSize,
		TotalPages: TotalUnknown,
		TotalItems: TotalUnknown,
	}
}

// HasMore reports whether another page may exist. Before the first response
// the answer is optimistic so the initial fetch can happen at all.
func (c Cursor) HasMore() bool {
	return c.TotalPages == TotalUnknown || c.NextPage <= c.TotalPages
}
