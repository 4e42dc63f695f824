package domain

// Book is the immutable catalog identity. Two books are the same book
// exactly when their ISBNs match.
type Book struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Price         float64  `json:"price"`
	PublishedDate string   `json:"published_date,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	Genre         string   `json:"genre,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// BookSet is a set of books keyed by ISBN, so membership follows catalog
// identity rather than struct equality.
type BookSet map[string]Book

func NewBookSet(books ...Book) BookSet {
	s := make(BookSet, len(books))
	for _, b := range books {
		s.Add(b)
	}
	return s
}

func (s BookSet) Add(b Book) {
	s[b.ISBN] = b
}

func (s BookSet) Contains(isbn string) bool {
	_, ok := s[isbn]
	return ok
}

// Books returns the members in unspecified order.
func (s BookSet) Books() []Book {
	out := make([]Book, 0, len(s))
	for _, b := range s {
		out = append(out, b)
	}
	return out
}
