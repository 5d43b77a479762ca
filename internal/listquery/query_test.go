package listquery

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsDropsSentinelFilters(t *testing.T) {
	q := New(10)
	q.Filters = map[string]string{"status": "all", "groupType": "CBU", "wardNo": ""}

	params := q.Params()

	assert.Equal(t, "CBU", params.Get("groupType"))
	assert.NotContains(t, params, "status")
	assert.NotContains(t, params, "wardNo")
	assert.Equal(t, "1", params.Get("page"))
	assert.Equal(t, "10", params.Get("limit"))
	require.Contains(t, params, "search")
	assert.Equal(t, "", params.Get("search"))
}

func TestNormalizeClampsPaging(t *testing.T) {
	q := Query{Page: 0, Limit: -3}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.NotNil(t, q.Filters)
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/cbucbo?page=3&limit=25&search=+alpha+&groupType=CBO&status=all&unknown=x", nil)

	q := FromRequest(req, []string{"groupType", "status"}, 10)

	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 25, q.Limit)
	assert.Equal(t, "alpha", q.Search)
	assert.Equal(t, map[string]string{"groupType": "CBO", "status": "all"}, q.Filters)
	assert.Equal(t, []string{"groupType"}, q.FilterKeys())
	assert.Equal(t, "all", q.Filter("status"))
	assert.Equal(t, "all", q.Filter("wardNo"))
}

func TestPageURLKeepsFilters(t *testing.T) {
	q := New(10)
	q.Search = "asha"
	q.Filters["status"] = "Active"

	assert.Equal(t, "limit=10&page=2&search=asha&status=Active", q.PageURL(2))
	assert.Equal(t, 1, q.Page, "PageURL must not mutate the receiver")
}

func TestFromValuesCapsLimit(t *testing.T) {
	values, err := url.ParseQuery("limit=5000&page=0&search=x")
	require.NoError(t, err)

	q := FromValues(values, nil, 10)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "x", q.Search)
}
