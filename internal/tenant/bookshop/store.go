package bookshop

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Book is one catalog entry.
type Book struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Price  float64 `json:"price"`
	Stock  int     `json:"stock"`
}

// Store is the in-memory book catalog. All methods are safe for concurrent
// use.
type Store struct {
	mu    sync.RWMutex
	books map[int]*Book
}

// NewStore creates a catalog seeded with the demo inventory.
func NewStore() *Store {
	return &Store{
		books: map[int]*Book{
			1: {ID: 1, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Price: 12.99, Stock: 45},
			2: {ID: 2, Title: "1984", Author: "George Orwell", Price: 14.99, Stock: 32},
			3: {ID: 3, Title: "To Kill a Mockingbird", Author: "Harper Lee", Price: 13.50, Stock: 28},
			4: {ID: 4, Title: "Pride and Prejudice", Author: "Jane Austen", Price: 11.99, Stock: 52},
			5: {ID: 5, Title: "The Catcher in the Rye", Author: "J.D. Salinger", Price: 12.50, Stock: 19},
		},
	}
}

// Get returns one book by ID.
func (s *Store) Get(id int) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return Book{}, false
	}
	return *b, true
}

// List returns all books ordered by ID, optionally filtered by author
// substring and minimum price.
func (s *Store) List(author string, minPrice float64) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		if author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(author)) {
			continue
		}
		if minPrice > 0 && b.Price < minPrice {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the catalog size.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// DecrementStock reserves quantity units of a book, failing when the book is
// unknown or stock is short. Returns the book state after the decrement.
func (s *Store) DecrementStock(id, quantity int) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	if b.Stock < quantity {
		return *b, ErrInsufficientStock
	}
	b.Stock -= quantity
	return *b, nil
}

// Stats summarizes the catalog for the stats endpoint.
type Stats struct {
	TotalBooks   int      `json:"total_books"`
	TotalStock   int      `json:"total_stock"`
	AvgPrice     float64  `json:"avg_price"`
	MaxPrice     float64  `json:"max_price"`
	PopularBooks []string `json:"popular_books"`
}

// TotalStock sums stock across the catalog.
func (s *Store) TotalStock() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, b := range s.books {
		total += b.Stock
	}
	return total
}

// PriceStats returns the average and maximum catalog price.
func (s *Store) PriceStats() (avg, max float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.books) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, b := range s.books {
		sum += b.Price
		if b.Price > max {
			max = b.Price
		}
	}
	return sum / float64(len(s.books)), max
}

// Popular returns the titles of the n lowest-stock books, a stand-in for
// sales popularity in the demo data.
func (s *Store) Popular(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*Book, 0, len(s.books))
	for _, b := range s.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Stock < books[j].Stock })

	if n > len(books) {
		n = len(books)
	}
	titles := make([]string, 0, n)
	for _, b := range books[:n] {
		titles = append(titles, b.Title)
	}
	return titles
}
