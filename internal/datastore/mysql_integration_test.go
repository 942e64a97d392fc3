//go:build integration

package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
)

func TestMySQLStoreIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("leafscan"),
		tcmysql.WithUsername("leaf"),
		tcmysql.WithPassword("leafpass"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, testcontainers.TerminateContainer(container))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	s := &conf.Settings{}
	s.Output.MySQL.Enabled = true
	s.Output.MySQL.Username = "leaf"
	s.Output.MySQL.Password = "leafpass"
	s.Output.MySQL.Host = host
	s.Output.MySQL.Port = port.Port()
	s.Output.MySQL.Database = "leafscan"

	store := New(s)
	require.NoError(t, store.Open())
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Save(ctx, &Diagnosis{
		Label:       "Potato___Late_blight",
		Confidence:  0.87,
		Remedy:      "Apply copper-based fungicide.",
		ImageSHA256: "ab12",
	}))

	rows, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Potato___Late_blight", rows[0].Label)
	assert.Equal(t, "ab12", rows[0].ImageSHA256)
}
