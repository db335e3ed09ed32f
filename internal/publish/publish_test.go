package publish

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcc-tools/qcc/internal/version"
)

type fakeHost struct {
	path    string
	saved   []string
	saveErr error
}

func (h *fakeHost) CurrentPath(context.Context) (string, bool) {
	return h.path, h.path != ""
}

func (h *fakeHost) SaveAs(_ context.Context, path string) error {
	if h.saveErr != nil {
		return h.saveErr
	}
	h.saved = append(h.saved, path)
	h.path = path
	return nil
}

type message struct {
	title, body string
}

type recordingNotifier struct {
	messages []message
}

func (n *recordingNotifier) Acknowledge(_ context.Context, title, body string) {
	n.messages = append(n.messages, message{title: title, body: body})
}

func TestIncrementAndSave(t *testing.T) {
	host := &fakeHost{path: "/show/mdl_chair_v009_final.ma"}
	notes := &recordingNotifier{}
	inc := NewIncrementer(host, notes, version.ScopeLiteral, nil)

	res, err := inc.IncrementAndSave(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/show/mdl_chair_v010_final.ma", res.Path)
	assert.Equal(t, "/show/mdl_chair_v009_final.ma", res.SourcePath)
	assert.Equal(t, "v010", res.Version)
	assert.Equal(t, []string{"/show/mdl_chair_v010_final.ma"}, host.saved)
	assert.Equal(t, []message{{title: "Saved", body: "Scene saved at: /show/mdl_chair_v010_final.ma"}}, notes.messages)
}

func TestIncrementAndSaveRepeatedly(t *testing.T) {
	host := &fakeHost{path: "/show/rig_hero_v098.mb"}
	inc := NewIncrementer(host, nil, version.ScopeLiteral, nil)

	for _, want := range []string{"/show/rig_hero_v099.mb", "/show/rig_hero_v100.mb", "/show/rig_hero_v101.mb"} {
		res, err := inc.IncrementAndSave(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, res.Path)
	}
	assert.Len(t, host.saved, 3)
}

func TestIncrementAndSaveUnsavedScene(t *testing.T) {
	host := &fakeHost{}
	notes := &recordingNotifier{}
	inc := NewIncrementer(host, notes, version.ScopeLiteral, nil)

	_, err := inc.IncrementAndSave(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnsavedScene(err))
	assert.Empty(t, host.saved)
	assert.Equal(t, []message{{title: "Warning", body: "Scene needs to be saved"}}, notes.messages)
}

func TestIncrementAndSaveNoVersionToken(t *testing.T) {
	host := &fakeHost{path: "/show/asset_final.ma"}
	notes := &recordingNotifier{}
	inc := NewIncrementer(host, notes, version.ScopeLiteral, nil)

	_, err := inc.IncrementAndSave(context.Background())
	require.Error(t, err)
	assert.True(t, version.IsNoVersionToken(err))
	assert.Empty(t, host.saved)
	assert.Equal(t, "/show/asset_final.ma", host.path)
	assert.Equal(t, []message{{title: "Warning", body: "No version found vXXX: /show/asset_final"}}, notes.messages)
}

func TestIncrementAndSaveHostFailure(t *testing.T) {
	boom := errors.New("disk full")
	host := &fakeHost{path: "/show/asset_v001.ma", saveErr: boom}
	notes := &recordingNotifier{}
	inc := NewIncrementer(host, notes, version.ScopeLiteral, nil)

	_, err := inc.IncrementAndSave(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "/show/asset_v001.ma", host.path)
	assert.Empty(t, notes.messages)
}

func TestIncrementerFilenameScope(t *testing.T) {
	host := &fakeHost{path: "/show/setv001/mdl_set_v001.ma"}
	inc := NewIncrementer(host, nil, version.ScopeFilename, nil)

	res, err := inc.IncrementAndSave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/show/setv001/mdl_set_v002.ma", res.Path)
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf, nil)
	n.Acknowledge(context.Background(), "Saved", "Scene saved at: /a_v002.ma")
	assert.Equal(t, "[Saved] Scene saved at: /a_v002.ma\n", buf.String())
}
