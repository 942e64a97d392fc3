package httpcontroller

import (
	"github.com/patrickmn/go-cache"
)

// cachedResult returns a copy of the stored response for an upload digest.
func (s *Server) cachedResult(digest string) (*PredictResponse, bool) {
	if s.results == nil {
		return nil, false
	}
	v, found := s.results.Get(digest)
	if s.Metrics != nil {
		s.Metrics.Classifier.RecordCacheLookup(found)
	}
	if !found {
		return nil, false
	}
	resp, ok := v.(PredictResponse)
	if !ok {
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

// storeResult caches resp under the upload digest. The frozen model is
// deterministic, so the same bytes always give the same diagnosis.
func (s *Server) storeResult(digest string, resp *PredictResponse) {
	if s.results == nil {
		return
	}
	s.results.Set(digest, *resp, cache.DefaultExpiration)
}
