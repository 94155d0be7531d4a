package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "s3cretpass\n", "hash-password", "--cost", "4")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cretpass")))
}

func TestHashPassword_EmptyStdin(t *testing.T) {
	_, err := execute(t, "", "hash-password")
	assert.Error(t, err)
}

func TestRevokeUser_InvalidID(t *testing.T) {
	_, err := execute(t, "", "revoke-user", "abc")
	assert.ErrorContains(t, err, "invalid user id")
}

func TestCommandsRequirePostgres(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_KIND", "memory")

	for _, args := range [][]string{
		{"purge-refresh"},
		{"revoke-user", "7"},
		{"apikey", "create", "--name", "svc"},
		{"migrate"},
	} {
		_, err := execute(t, "", append(args, "--env-file", "does-not-exist.env")...)
		assert.ErrorContains(t, err, "storage.driver=postgres", args)
	}
}
