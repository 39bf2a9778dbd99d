// Package storetest holds the behaviour every store backend must share, so
// each backend's tests run the same suite against a fresh instance.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	"carebook/internal/store"
	"carebook/pkg/platform/sentinel"
)

// BackendSuite exercises a store.Backend. Set NewBackend before running;
// it must return an empty backend each time it is called.
type BackendSuite struct {
	suite.Suite
	NewBackend func() store.Backend

	backend store.Backend
	ctx     context.Context
	seq     atomic.Int64
}

func (s *BackendSuite) SetupTest() {
	s.Require().NotNil(s.NewBackend, "NewBackend must be set")
	s.backend = s.NewBackend()
	s.ctx = context.Background()
}

// name returns a collection name unique to this suite run so backends that
// share a server across tests do not see each other's data.
func (s *BackendSuite) name() string {
	return fmt.Sprintf("coll%d", s.seq.Add(1))
}

func (s *BackendSuite) TestMissingCollectionIsEmpty() {
	doc, err := s.backend.Load(s.ctx, s.name())
	s.Require().NoError(err)
	s.Equal(int64(0), doc.Version)
	s.Empty(doc.Payload)
}

func (s *BackendSuite) TestSwapRoundTrip() {
	name := s.name()
	v, err := s.backend.Swap(s.ctx, name, 0, []byte(`[{"id":"1"}]`))
	s.Require().NoError(err)
	s.Equal(int64(1), v)

	doc, err := s.backend.Load(s.ctx, name)
	s.Require().NoError(err)
	s.Equal(int64(1), doc.Version)
	s.JSONEq(`[{"id":"1"}]`, string(doc.Payload))

	v, err = s.backend.Swap(s.ctx, name, 1, []byte(`[]`))
	s.Require().NoError(err)
	s.Equal(int64(2), v)
}

func (s *BackendSuite) TestSwapRejectsStaleVersion() {
	name := s.name()
	_, err := s.backend.Swap(s.ctx, name, 0, []byte(`[1]`))
	s.Require().NoError(err)

	s.Run("stale expected version", func() {
		_, err := s.backend.Swap(s.ctx, name, 0, []byte(`[2]`))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
	s.Run("future expected version", func() {
		_, err := s.backend.Swap(s.ctx, name, 7, []byte(`[3]`))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
	s.Run("content unchanged", func() {
		doc, err := s.backend.Load(s.ctx, name)
		s.Require().NoError(err)
		s.JSONEq(`[1]`, string(doc.Payload))
		s.Equal(int64(1), doc.Version)
	})
}

func (s *BackendSuite) TestPutOverwritesAndBumpsVersion() {
	name := s.name()
	v, err := s.backend.Put(s.ctx, name, []byte(`[1]`))
	s.Require().NoError(err)
	s.Equal(int64(1), v)

	v, err = s.backend.Put(s.ctx, name, []byte(`[2]`))
	s.Require().NoError(err)
	s.Equal(int64(2), v)

	doc, err := s.backend.Load(s.ctx, name)
	s.Require().NoError(err)
	s.JSONEq(`[2]`, string(doc.Payload))
}

func (s *BackendSuite) TestConcurrentSwapsHaveOneWinner() {
	name := s.name()
	_, err := s.backend.Swap(s.ctx, name, 0, []byte(`[]`))
	s.Require().NoError(err)

	const writers = 8
	var (
		wg   sync.WaitGroup
		wins atomic.Int64
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.backend.Swap(s.ctx, name, 1, []byte(fmt.Sprintf(`[%d]`, i))); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int64(1), wins.Load())
}

func (s *BackendSuite) TestLoadManyWhenSupported() {
	bl, ok := s.backend.(store.BatchLoader)
	if !ok {
		s.T().Skip("backend does not batch loads")
	}
	a, b := s.name(), s.name()
	_, err := s.backend.Put(s.ctx, a, []byte(`["a"]`))
	s.Require().NoError(err)

	docs, err := bl.LoadMany(s.ctx, []string{a, b})
	s.Require().NoError(err)
	s.JSONEq(`["a"]`, string(docs[a].Payload))
	s.Equal(int64(0), docs[b].Version)
}
