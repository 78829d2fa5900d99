package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in dependency order.  Identifiers are UUID
// strings; soft-deleted rows keep deleted_at set.
var schema = []struct {
	name string
	ddl  string
}{
	{"movies", `
CREATE TABLE IF NOT EXISTS movies (
    id           CHAR(36)     NOT NULL PRIMARY KEY,
    title        VARCHAR(50)  NOT NULL,
    genre        VARCHAR(255) NOT NULL DEFAULT '',
    deliberation VARCHAR(50)  NOT NULL DEFAULT '00',
    price        INT          NOT NULL DEFAULT 0,
    showtime     INT          NOT NULL DEFAULT 0,
    img_url      VARCHAR(5000) NOT NULL DEFAULT '',
    status       VARCHAR(50)  NOT NULL DEFAULT '00',
    open_date    DATETIME     NULL,
    created_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    deleted_at   DATETIME     NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"theaters", `
CREATE TABLE IF NOT EXISTS theaters (
    id           CHAR(36)    NOT NULL PRIMARY KEY,
    name         VARCHAR(50) NOT NULL,
    type         VARCHAR(50) NOT NULL DEFAULT '00',
    number_seats INT         NOT NULL DEFAULT 0,
    created_at   DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    deleted_at   DATETIME    NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"seats", `
CREATE TABLE IF NOT EXISTS seats (
    id         CHAR(36)     NOT NULL PRIMARY KEY,
    theater_id CHAR(36)     NOT NULL,
    line       VARCHAR(50)  NOT NULL,
    ` + "`rows`" + `     VARCHAR(1000) NOT NULL DEFAULT '[]',
    created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME     NULL,
    CONSTRAINT fk_seats_theater FOREIGN KEY (theater_id) REFERENCES theaters(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"screening", `
CREATE TABLE IF NOT EXISTS screening (
    id         CHAR(36)    NOT NULL PRIMARY KEY,
    kind       VARCHAR(50) NOT NULL DEFAULT '00',
    start_time DATETIME    NULL,
    end_time   DATETIME    NULL,
    ready_time DATETIME    NULL,
    movie_id   CHAR(36)    NOT NULL,
    theater_id CHAR(36)    NOT NULL,
    created_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    deleted_at DATETIME    NULL,
    KEY idx_screening_start (start_time),
    KEY idx_screening_theater (theater_id, start_time),
    CONSTRAINT fk_screening_movie FOREIGN KEY (movie_id) REFERENCES movies(id),
    CONSTRAINT fk_screening_theater FOREIGN KEY (theater_id) REFERENCES theaters(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"reservation", `
CREATE TABLE IF NOT EXISTS reservation (
    id            CHAR(36)      NOT NULL PRIMARY KEY,
    screening_id  CHAR(36)      NOT NULL,
    seat          VARCHAR(1000) NOT NULL,
    status        VARCHAR(50)   NOT NULL DEFAULT '00',
    amount        INT           NOT NULL DEFAULT 0,
    name          VARCHAR(50)   NOT NULL,
    phone         VARCHAR(50)   NOT NULL,
    payment_price INT           NOT NULL DEFAULT 0,
    created_at    DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    KEY idx_reservation_screening (screening_id, status),
    KEY idx_reservation_customer (name, phone),
    CONSTRAINT fk_reservation_screening FOREIGN KEY (screening_id) REFERENCES screening(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// InitSchema creates any missing tables.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, t := range schema {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}
