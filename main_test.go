package main

import (
	"sync"
	"testing"

	"github.com/Mashyrano/Pos-performance-Tracker/config"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm/schema"
)

func TestDialector(t *testing.T) {
	t.Run("MySQLKeepsMicroseconds", func(t *testing.T) {
		d, err := dialector(config.DatabaseConfig{
			Driver: "mysql", Host: "localhost", Port: 3306, User: "pos", Password: "secret", Name: "pos",
		})
		require.NoError(t, err)

		md, ok := d.(*mysql.Dialector)
		require.True(t, ok)
		require.NotNil(t, md.DefaultDatetimePrecision)
		assert.Equal(t, 6, *md.DefaultDatetimePrecision)

		s, err := schema.Parse(&models.Transaction{}, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		assert.Equal(t, "datetime(6)", md.DataTypeOf(s.LookUpField("Date")))
	})

	t.Run("Postgres", func(t *testing.T) {
		d, err := dialector(config.DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, SSLMode: "disable"})
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := dialector(config.DatabaseConfig{Driver: "sqlite"})
		require.Error(t, err)
	})
}
