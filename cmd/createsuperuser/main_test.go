package main

import (
	"bytes"
	"context"
	"testing"

	"accounts_service/internal/accounts"
	"accounts_service/internal/domain"
	"accounts_service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CreatesSuperuser(t *testing.T) {
	gdb := testutil.NewDB(t)
	var out bytes.Buffer

	err := run(context.Background(), gdb, options{email: "root@Example.com", password: "long-enough-secret"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "root@example.com")

	user, err := accounts.GetByEmail(context.Background(), gdb, "root@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsStaff)
	assert.Equal(t, domain.RoleSuperUser, user.Role)
	assert.True(t, user.CheckPassword("long-enough-secret"))
}

func TestRun_PasswordPolicy(t *testing.T) {
	gdb := testutil.NewDB(t)

	err := run(context.Background(), gdb, options{email: "a@example.com", password: "123"}, &bytes.Buffer{})
	var pwErr *accounts.PasswordError
	assert.ErrorAs(t, err, &pwErr)

	err = run(context.Background(), gdb, options{email: "a@example.com", password: "123", skipValidation: true}, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestRun_DuplicateEmail(t *testing.T) {
	gdb := testutil.NewDB(t)
	opts := options{email: "dup@example.com"}
	require.NoError(t, run(context.Background(), gdb, opts, &bytes.Buffer{}))

	assert.ErrorIs(t, run(context.Background(), gdb, opts, &bytes.Buffer{}), accounts.ErrEmailTaken)
}

func TestRootCmd_RequiresEmail(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
