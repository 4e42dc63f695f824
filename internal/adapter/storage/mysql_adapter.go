package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

const authorSeparator = "|"

// MySQLStore implements the repository ports on a MySQL database.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// EnsureSchema creates the storefront tables when they do not exist yet.
func (m *MySQLStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
			isbn VARCHAR(32) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			authors TEXT,
			price DECIMAL(10,2) NOT NULL,
			published_date VARCHAR(32),
			cover_url TEXT,
			publisher VARCHAR(255),
			genre VARCHAR(128),
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS inventory (
			isbn VARCHAR(32) PRIMARY KEY,
			stock INT NOT NULL,
			version INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			cart_id VARCHAR(64),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64),
			state VARCHAR(16) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS cart_entries (
			cart_id VARCHAR(64) NOT NULL,
			isbn VARCHAR(32) NOT NULL,
			quantity INT NOT NULL,
			PRIMARY KEY (cart_id, isbn)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			confirmation VARCHAR(64) NOT NULL,
			total DECIMAL(10,2) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			order_id VARCHAR(64) NOT NULL,
			isbn VARCHAR(32) NOT NULL,
			title VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			unit_price DECIMAL(10,2) NOT NULL,
			PRIMARY KEY (order_id, isbn)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLStore) SaveBook(ctx context.Context, book domain.Book) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO books (isbn, title, authors, price, published_date, cover_url, publisher, genre, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			title = VALUES(title), authors = VALUES(authors), price = VALUES(price),
			published_date = VALUES(published_date), cover_url = VALUES(cover_url),
			publisher = VALUES(publisher), genre = VALUES(genre), description = VALUES(description)`,
		book.ISBN, book.Title, strings.Join(book.Authors, authorSeparator), book.Price,
		book.PublishedDate, book.CoverURL, book.Publisher, book.Genre, book.Description,
	)
	if err != nil {
		return fmt.Errorf("save book: %w", err)
	}
	return nil
}

func scanBook(row interface{ Scan(...any) error }) (*domain.Book, error) {
	var b domain.Book
	var authors string
	err := row.Scan(&b.ISBN, &b.Title, &authors, &b.Price, &b.PublishedDate,
		&b.CoverURL, &b.Publisher, &b.Genre, &b.Description)
	if err != nil {
		return nil, err
	}
	if authors != "" {
		b.Authors = strings.Split(authors, authorSeparator)
	}
	return &b, nil
}

const bookColumns = `isbn, title, authors, price, published_date, cover_url, publisher, genre, description`

func (m *MySQLStore) GetBook(ctx context.Context, isbn string) (*domain.Book, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE isbn = ?`, isbn)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	return book, nil
}

func (m *MySQLStore) ListBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY isbn`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

func (m *MySQLStore) SaveInventory(ctx context.Context, item domain.InventoryItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (isbn, stock, version)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE stock = VALUES(stock), version = VALUES(version)`,
		item.ISBN, item.Quantity, item.Version,
	)
	if err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

func (m *MySQLStore) GetInventory(ctx context.Context, isbn string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := m.db.QueryRowContext(ctx, `
		SELECT isbn, stock, version, created_at, updated_at
		FROM inventory WHERE isbn = ?`, isbn,
	).Scan(&item.ISBN, &item.Quantity, &item.Version, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return &item, nil
}

func (m *MySQLStore) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT isbn, stock, version, created_at, updated_at FROM inventory ORDER BY isbn`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.ISBN, &item.Quantity, &item.Version, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLStore) UpdateInventory(ctx context.Context, item domain.InventoryItem) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory
		SET stock = ?, version = version + 1, updated_at = NOW()
		WHERE isbn = ? AND version = ?`,
		item.Quantity, item.ISBN, item.Version,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

func (m *MySQLStore) SaveCart(ctx context.Context, cart *domain.Cart) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, state)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE user_id = VALUES(user_id), state = VALUES(state)`,
		cart.ID, cart.UserID, cart.State,
	)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_entries WHERE cart_id = ?`, cart.ID); err != nil {
		return fmt.Errorf("clear cart entries: %w", err)
	}
	for _, e := range cart.Entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_entries (cart_id, isbn, quantity) VALUES (?, ?, ?)`,
			cart.ID, e.Book.ISBN, e.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert cart entry: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLStore) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	return m.loadCart(ctx, `SELECT id, user_id, state, created_at, updated_at FROM carts WHERE id = ?`, id)
}

func (m *MySQLStore) GetCartByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return m.loadCart(ctx, `SELECT id, user_id, state, created_at, updated_at FROM carts WHERE user_id = ?`, userID)
}

func (m *MySQLStore) loadCart(ctx context.Context, query string, arg string) (*domain.Cart, error) {
	var cart domain.Cart
	err := m.db.QueryRowContext(ctx, query, arg).
		Scan(&cart.ID, &cart.UserID, &cart.State, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT b.isbn, b.title, b.authors, b.price, b.published_date, b.cover_url,
		       b.publisher, b.genre, b.description, e.quantity
		FROM cart_entries e JOIN books b ON b.isbn = e.isbn
		WHERE e.cart_id = ?`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.Book
		var authors string
		var quantity int
		err := rows.Scan(&b.ISBN, &b.Title, &authors, &b.Price, &b.PublishedDate,
			&b.CoverURL, &b.Publisher, &b.Genre, &b.Description, &quantity)
		if err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		if authors != "" {
			b.Authors = strings.Split(authors, authorSeparator)
		}
		cart.Entries = append(cart.Entries, domain.CartEntry{Book: b, Quantity: quantity})
	}
	return &cart, rows.Err()
}

func (m *MySQLStore) SaveUser(ctx context.Context, user domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id, name, cart_id)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), cart_id = VALUES(cart_id)`,
		user.ID, user.Name, user.CartID,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if user.CartID != "" {
		if _, err := m.db.ExecContext(ctx,
			`UPDATE carts SET user_id = ? WHERE id = ?`, user.ID, user.CartID); err != nil {
			return fmt.Errorf("attach cart: %w", err)
		}
	}
	return nil
}

func (m *MySQLStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, cart_id, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Name, &user.CartID, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (m *MySQLStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, cart_id, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Name, &user.CartID, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (m *MySQLStore) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, confirmation, total, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Confirmation, order.Total, order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, isbn, title, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, line.ISBN, line.Title, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, confirmation, total, status, created_at FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.UserID, &order.Confirmation, &order.Total, &order.Status, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if err := m.loadOrderLines(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (m *MySQLStore) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, confirmation, total, status, created_at
		FROM orders WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Confirmation, &order.Total, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := m.loadOrderLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (m *MySQLStore) loadOrderLines(ctx context.Context, order *domain.Order) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT isbn, title, quantity, unit_price FROM order_lines WHERE order_id = ?`, order.ID)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ISBN, &line.Title, &line.Quantity, &line.UnitPrice); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}
