package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"healthfund/pkg/platform/sentinel"
)

func TestMapUnique(t *testing.T) {
	fields := map[string]string{"identities_username_key": "username"}

	t.Run("known constraint maps to field", func(t *testing.T) {
		err := MapUnique(fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "identities_username_key"}), fields)
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		field, ok := sentinel.ViolatedField(err)
		assert.True(t, ok)
		assert.Equal(t, "username", field)
	})

	t.Run("unknown constraint keeps its name", func(t *testing.T) {
		err := MapUnique(&pq.Error{Code: "23505", Constraint: "other_key"}, fields)
		field, _ := sentinel.ViolatedField(err)
		assert.Equal(t, "other_key", field)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		fk := &pq.Error{Code: "23503", Constraint: "applications_owner_id_fkey"}
		assert.Same(t, fk, MapUnique(fk, fields))

		plain := errors.New("connection reset")
		assert.Equal(t, plain, MapUnique(plain, fields))
		assert.False(t, IsUniqueViolation(plain))
	})
}
