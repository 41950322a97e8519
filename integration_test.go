//go:build integration

package modeldef

import (
	"context"
	"strings"
	"testing"

	"github.com/sqldef/modeldef/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const accountsPostgres = `
models:
  - table: accounts
    columns:
      - {name: id, type: bigint, primary_key: true, auto_increment: true}
      - {name: email, type: string, length: 64, not_null: true, unique: true}
      - {name: status, type: enum, values: [active, banned], not_null: true, default: active}
      - {name: verified, type: bool, default: true}
      - {name: score, type: decimal, precision: 10, scale: 2, default: 0}
      - {name: tags, type: array, of: string}
      - {name: joined_at, type: datetime}
`

func TestPostgresIntegration(t *testing.T) {
	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("app"),
		postgres.WithUsername("app"),
		postgres.WithPassword("secret"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	url = strings.Replace(url, "/app?", "/modeldef?", 1)

	require.NoError(t, EnsureDatabase(ctx, url, false, nil))
	require.NoError(t, EnsureDatabase(ctx, url, false, nil))

	db, err := Open(url)
	require.NoError(t, err)
	defer db.Close()

	models, err := schema.ParseModels([]byte(accountsPostgres))
	require.NoError(t, err)

	result, err := Converge(ctx, db, models, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts"}, result.Created)

	result, err = Converge(ctx, db, models, Options{})
	require.NoError(t, err)
	assert.False(t, result.Changed(), "%v", result.Statements)

	_, err = db.DB().ExecContext(ctx, `INSERT INTO accounts (email) VALUES ('a@example.com')`)
	require.NoError(t, err)

	required := models[0].(*schema.Table)
	required.Cols = append(required.Cols, schema.Column{Name: "nickname", Type: schema.Scalar(schema.KindString), NotNull: true})
	_, err = Converge(ctx, db, models, Options{})
	var dataLoss *schema.DataLossError
	assert.ErrorAs(t, err, &dataLoss)

	result, err = Converge(ctx, db, models, Options{Reset: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts"}, result.Recreated)

	result, err = Converge(ctx, db, models, Options{})
	require.NoError(t, err)
	assert.False(t, result.Changed(), "%v", result.Statements)
}
