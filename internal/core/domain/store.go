package domain

import "time"

type Store struct {
	ID        int64
	Name      string
	Address   string
	CreatedAt time.Time
}
