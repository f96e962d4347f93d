package dsn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/dsn"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: "mysql",
				Host:       "db.local",
				Port:       3306,
				User:       "shelf",
				Password:   "secret",
				Name:       "shelfwise",
				Extras:     "parseTime=True",
			},
			want: "shelf:secret@tcp(db.local:3306)/shelfwise?parseTime=True",
		},
		{
			name: "postgres",
			db: config.DB{
				GormEngine: "postgres",
				Host:       "db.local",
				Port:       5432,
				User:       "shelf",
				Password:   "secret",
				Name:       "shelfwise",
				Extras:     "sslmode=disable",
			},
			want: "host=db.local user=shelf password=secret dbname=shelfwise port=5432 sslmode=disable",
		},
		{
			name: "sqlite",
			db:   config.DB{GormEngine: "sqlite", Name: "shelfwise.db"},
			want: "shelfwise.db",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := dsn.Create(&config.Config{DB: tc.db})
			assert.Equal(t, tc.want, got)
		})
	}
}
