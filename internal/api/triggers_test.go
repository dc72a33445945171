package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

func newTestTrigger(id string) *triggers.Trigger {
	return &triggers.Trigger{
		ID:      id,
		Name:    id,
		Enabled: true,
		Filter:  &matcher.Filter{},
	}
}

func TestTriggersHandlerListsGroupsAndTriggers(t *testing.T) {
	idx := index.New()
	_, err := idx.CreateTrigger(newTestTrigger("t1"), triggers.TopLevelGroupID, 0)
	require.NoError(t, err)

	h := NewTriggersHandler(idx)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/triggers", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body triggersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Triggers, 1)
	require.Equal(t, "t1", body.Triggers[0].ID)
	require.NotEmpty(t, body.Groups)
}
