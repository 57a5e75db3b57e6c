package ignore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gethiox/middleclick/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeX struct {
	window  string
	classes map[string]string
	calls   int
	err     error
}

func (f *fakeX) run(_ context.Context, args ...string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	switch args[0] {
	case "getactivewindow":
		return f.window, nil
	case "getwindowclassname":
		return f.classes[args[1]], nil
	}
	return "", errors.New("unexpected command")
}

func newStore(apps ...string) *config.Store {
	s := config.DefaultSettings()
	for _, a := range apps {
		s.IgnoredApps[a] = true
	}
	return config.NewStore(s)
}

func TestCheckerFollowsFocus(t *testing.T) {
	store := newStore("gimp")
	checker := NewChecker(store)
	x := &fakeX{window: "100", classes: map[string]string{"100": "Gimp", "200": "firefox"}}
	w := NewWatcher(checker, x.run)

	assert.False(t, checker.Ignored())

	require.NoError(t, w.Poll(context.Background()))
	assert.Equal(t, "gimp", checker.Focused())
	assert.True(t, checker.Ignored())

	x.window = "200"
	require.NoError(t, w.Poll(context.Background()))
	assert.False(t, checker.Ignored())
}

func TestWatcherCachesClasses(t *testing.T) {
	checker := NewChecker(newStore("gimp"))
	x := &fakeX{window: "100", classes: map[string]string{"100": "Gimp"}}
	w := NewWatcher(checker, x.run)

	require.NoError(t, w.Poll(context.Background()))
	require.NoError(t, w.Poll(context.Background()))
	require.NoError(t, w.Poll(context.Background()))
	assert.Equal(t, 4, x.calls)
}

func TestWatcherClassesExpire(t *testing.T) {
	checker := NewChecker(newStore("gimp"))
	x := &fakeX{window: "100", classes: map[string]string{"100": "Gimp"}}
	w := newWatcher(checker, x.run, time.Millisecond*20)

	require.NoError(t, w.Poll(context.Background()))
	assert.True(t, checker.Ignored())

	// window closed, its id handed over to a new one
	x.classes["100"] = "firefox"
	time.Sleep(time.Millisecond * 50)

	require.NoError(t, w.Poll(context.Background()))
	assert.Equal(t, "firefox", checker.Focused())
	assert.False(t, checker.Ignored())
	assert.Equal(t, 4, x.calls)
}

func TestWatcherFailureClearsFocus(t *testing.T) {
	checker := NewChecker(newStore("gimp"))
	x := &fakeX{window: "100", classes: map[string]string{"100": "gimp"}}
	w := NewWatcher(checker, x.run)

	require.NoError(t, w.Poll(context.Background()))
	assert.True(t, checker.Ignored())

	x.err = errors.New("no display")
	assert.Error(t, w.Poll(context.Background()))
	assert.False(t, checker.Ignored())
	assert.Equal(t, "", checker.Focused())
}

func TestCheckerUsesCurrentSettings(t *testing.T) {
	store := newStore()
	checker := NewChecker(store)
	checker.setFocused("gimp")
	assert.False(t, checker.Ignored())

	s := config.DefaultSettings()
	s.IgnoredApps["gimp"] = true
	store.Set(s)
	assert.True(t, checker.Ignored())
}
