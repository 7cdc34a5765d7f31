package database

// PostgresSchema creates the product tables. Price history is a JSON
// document on the product row so an upsert replaces it atomically.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS products (
    id              SERIAL PRIMARY KEY,
    url             TEXT NOT NULL UNIQUE,
    currency        TEXT NOT NULL DEFAULT '',
    image           TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL DEFAULT '',
    current_price   DOUBLE PRECISION NOT NULL DEFAULT 0,
    original_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
    discount_rate   DOUBLE PRECISION NOT NULL DEFAULT 0,
    category        TEXT NOT NULL DEFAULT '',
    reviews_count   INTEGER NOT NULL DEFAULT 0,
    stars           DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_out_of_stock BOOLEAN NOT NULL DEFAULT FALSE,
    description     TEXT NOT NULL DEFAULT '',
    price_history   JSONB NOT NULL DEFAULT '[]',
    lowest_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
    highest_price   DOUBLE PRECISION NOT NULL DEFAULT 0,
    average_price   DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_subscribers (
    product_id   INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    email        TEXT NOT NULL,
    target_price DOUBLE PRECISION,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (product_id, email)
);
`

// SQLiteSchema mirrors PostgresSchema. Timestamps are unix milliseconds.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS products (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    url             TEXT NOT NULL UNIQUE,
    currency        TEXT NOT NULL DEFAULT '',
    image           TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL DEFAULT '',
    current_price   REAL NOT NULL DEFAULT 0,
    original_price  REAL NOT NULL DEFAULT 0,
    discount_rate   REAL NOT NULL DEFAULT 0,
    category        TEXT NOT NULL DEFAULT '',
    reviews_count   INTEGER NOT NULL DEFAULT 0,
    stars           REAL NOT NULL DEFAULT 0,
    is_out_of_stock INTEGER NOT NULL DEFAULT 0,
    description     TEXT NOT NULL DEFAULT '',
    price_history   TEXT NOT NULL DEFAULT '[]',
    lowest_price    REAL NOT NULL DEFAULT 0,
    highest_price   REAL NOT NULL DEFAULT 0,
    average_price   REAL NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS product_subscribers (
    product_id   INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    email        TEXT NOT NULL,
    target_price REAL,
    created_at   INTEGER NOT NULL,
    PRIMARY KEY (product_id, email)
);
`
