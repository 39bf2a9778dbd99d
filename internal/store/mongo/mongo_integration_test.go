//go:build integration

package mongo

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carebook/internal/store"
	"carebook/internal/store/storetest"
	"carebook/pkg/testutil/containers"
)

func TestMongoBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	mc := containers.GetManager().GetMongo(t)
	suite.Run(t, &storetest.BackendSuite{
		NewBackend: func() store.Backend {
			return New(mc.Client, fmt.Sprintf("carebook_test_%d", time.Now().UnixNano()))
		},
	})
}
