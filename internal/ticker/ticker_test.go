package ticker_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketdata/internal/datasource"
	"marketdata/internal/ticker"
)

// fakeResolver hands out pre-built datasources by name.
type fakeResolver struct {
	sources          map[string]datasource.DataSource
	source, fallback string
}

func (r fakeResolver) Create(name string) (datasource.DataSource, error) {
	ds, ok := r.sources[name]
	if !ok {
		return nil, &datasource.NotFoundError{Name: name}
	}
	return ds, nil
}

func (r fakeResolver) Defaults() (string, string) { return r.source, r.fallback }

func newPair(t *testing.T) (*gomock.Controller, *MockDataSource, *MockDataSource, fakeResolver) {
	t.Helper()
	ctrl := gomock.NewController(t)
	primary := NewMockDataSource(ctrl)
	fallback := NewMockDataSource(ctrl)
	primary.EXPECT().Name().Return("Primary").AnyTimes()
	fallback.EXPECT().Name().Return("Fallback").AnyTimes()
	resolver := fakeResolver{
		sources:  map[string]datasource.DataSource{"Primary": primary, "Fallback": fallback},
		source:   "Primary",
		fallback: "Fallback",
	}
	return ctrl, primary, fallback, resolver
}

func TestNew_ResolvesDefaults(t *testing.T) {
	_, primary, fallback, resolver := newPair(t)

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", tkr.Symbol())
	require.Same(t, datasource.DataSource(primary), tkr.DataSource())
	require.Same(t, datasource.DataSource(fallback), tkr.FallbackDataSource())
}

func TestNew_UnknownSourceIsNotFound(t *testing.T) {
	_, _, _, resolver := newPair(t)

	_, err := ticker.New(resolver, "AAPL", ticker.WithDataSource("Nope"))
	var notFound *datasource.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "Nope", notFound.Name)
}

func TestNew_EmptySymbolIsInvalid(t *testing.T) {
	_, _, _, resolver := newPair(t)

	_, err := ticker.New(resolver, "  ")
	var invalid *datasource.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestGetSummary_PrimarySuccess(t *testing.T) {
	_, primary, _, resolver := newPair(t)

	primary.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Any()).
		Return(map[string]any{"companyName": "Apple Inc"}, nil).
		Times(1)

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	got, err := tkr.GetSummary(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Apple Inc", got["companyName"])
}

func TestGetSummary_EligibleStatusInvokesFallbackOnce(t *testing.T) {
	_, primary, fallback, resolver := newPair(t)

	primary.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Any()).
		Return(nil, &datasource.StatusError{Source: "Primary", StatusCode: 500, Body: []byte("boom")}).
		Times(1)
	primary.EXPECT().FallbackEligible(500).Return(true).Times(1)
	fallback.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Nil()).
		Return(map[string]any{"companyName": "Apple Inc"}, nil).
		Times(1)

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	got, err := tkr.GetSummary(t.Context())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"companyName": "Apple Inc"}, got)
}

func TestGetSummary_IneligibleStatusIsTerminal(t *testing.T) {
	_, primary, _, resolver := newPair(t)

	primary.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Any()).
		Return(nil, &datasource.StatusError{Source: "Primary", StatusCode: 404, Body: []byte("unknown symbol")}).
		Times(1)
	primary.EXPECT().FallbackEligible(404).Return(false).Times(1)
	// No Execute expectation on the fallback: calling it fails the test.

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	_, err = tkr.GetSummary(t.Context())
	var mdErr *ticker.MarketDataError
	require.ErrorAs(t, err, &mdErr)
	require.Equal(t, "Primary", mdErr.Source)
	require.Nil(t, mdErr.FallbackErr)

	var status *datasource.StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, 404, status.StatusCode)
	require.Equal(t, []byte("unknown symbol"), status.Body)
}

func TestGetSummary_TransportErrorInvokesFallback(t *testing.T) {
	_, primary, fallback, resolver := newPair(t)

	primary.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused")).
		Times(1)
	// FallbackEligible is never consulted for transport failures.
	fallback.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Nil()).
		Return(map[string]any{"companyName": "Apple Inc"}, nil).
		Times(1)

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	got, err := tkr.GetSummary(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Apple Inc", got["companyName"])
}

func TestGetSummary_FallbackFailureIsTerminalWithBothCauses(t *testing.T) {
	_, primary, fallback, resolver := newPair(t)

	primaryErr := errors.New("dial tcp: connection refused")
	fallbackErr := errors.New("no statistics found")
	primary.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Any()).
		Return(nil, primaryErr).
		Times(1)
	fallback.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Nil()).
		Return(nil, fallbackErr).
		Times(1)

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	_, err = tkr.GetSummary(t.Context())
	var mdErr *ticker.MarketDataError
	require.ErrorAs(t, err, &mdErr)
	require.ErrorIs(t, err, primaryErr)
	require.ErrorIs(t, err, fallbackErr)
	require.Equal(t, "Fallback", mdErr.FallbackSource)
}

func TestGetSummary_InvalidArgumentSkipsFallback(t *testing.T) {
	_, primary, _, resolver := newPair(t)

	primary.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Any()).
		Return(nil, &datasource.InvalidArgumentError{Param: "function"}).
		Times(1)

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	_, err = tkr.GetSummary(t.Context())
	var invalid *datasource.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
}

func TestGetSummary_CallScopedSourceOverrideDoesNotRebind(t *testing.T) {
	ctrl, primary, _, resolver := newPair(t)

	other := NewMockDataSource(ctrl)
	other.EXPECT().Name().Return("Other").AnyTimes()
	other.EXPECT().
		Execute(gomock.Any(), datasource.FunctionSummary, "AAPL", gomock.Any()).
		Return(map[string]any{"companyName": "Apple Inc"}, nil).
		Times(1)
	resolver.sources["Other"] = other

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	_, err = tkr.GetSummary(t.Context(), ticker.WithSource("Other"))
	require.NoError(t, err)

	// The persistent binding is untouched.
	require.Same(t, datasource.DataSource(primary), tkr.DataSource())
}

func TestSetDataSource_Rebinds(t *testing.T) {
	ctrl, _, fallback, resolver := newPair(t)

	other := NewMockDataSource(ctrl)
	other.EXPECT().Name().Return("Other").AnyTimes()
	resolver.sources["Other"] = other

	tkr, err := ticker.New(resolver, "AAPL")
	require.NoError(t, err)

	require.NoError(t, tkr.SetDataSource("Other"))
	require.Same(t, datasource.DataSource(other), tkr.DataSource())
	require.Same(t, datasource.DataSource(fallback), tkr.FallbackDataSource())

	err = tkr.SetDataSource("Missing")
	var notFound *datasource.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Same(t, datasource.DataSource(other), tkr.DataSource(), "failed rebind must not clear the binding")
}
