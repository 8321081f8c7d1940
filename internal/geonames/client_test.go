package geonames

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Kyiv", q.Get("q"))
		assert.Equal(t, "0.8", q.Get("fuzzy"))
		assert.Equal(t, "demo", q.Get("username"))
		assert.Equal(t, []string{"UA", "PL"}, q["country"])
		w.Write([]byte(`{"totalResultsCount":1,"geonames":[{"geonameId":703448,"name":"Kyiv","countryName":"Ukraine","lat":"50.45","lng":"30.52"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()
	resp, err := c.Search(context.Background(), Query{Term: "Kyiv", Username: "demo", Countries: []string{"UA", "PL"}})
	require.NoError(t, err)
	require.Len(t, resp.Geonames, 1)
	assert.Equal(t, int64(703448), resp.Geonames[0].GeonameID)
	assert.Equal(t, "Ukraine", resp.Geonames[0].CountryName)
}

func TestSearch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") == "bad" {
			w.Write([]byte(`{"status":{"message":"user does not exist.","value":10}}`))
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Search(context.Background(), Query{Term: "x"})
	assert.True(t, errors.Is(err, ErrNoUsername))

	_, err = c.Search(context.Background(), Query{Term: "x", Username: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user does not exist")

	_, err = c.Search(context.Background(), Query{Term: "x", Username: "ok"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
