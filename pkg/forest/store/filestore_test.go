package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-go-golems/forest/pkg/forest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = fs.Close()
	})
	return fs, dir
}

func mustCreateRoot(t *testing.T, fs *FileStore) *forest.Root {
	t.Helper()
	root, err := fs.CreateRoot(forest.RootConfig{Model: "gpt-4"})
	require.NoError(t, err)
	return root
}

func TestOpenIsExclusive(t *testing.T) {
	fs, dir := openTestStore(t)

	_, err := Open(dir)
	require.True(t, errors.Is(err, forest.ErrBusy))

	// released on close, a new owner can take over
	require.NoError(t, fs.Close())
	fs2, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, fs2.Close())
}

func TestCreateRootRequiresModel(t *testing.T) {
	fs, _ := openTestStore(t)

	_, err := fs.CreateRoot(forest.RootConfig{})
	require.True(t, errors.Is(err, forest.ErrValidation))
}

func TestCreateRootPersists(t *testing.T) {
	fs, _ := openTestStore(t)

	temperature := 0.7
	root, err := fs.CreateRoot(forest.RootConfig{
		Model:        "gpt-4",
		SystemPrompt: "be brief",
		Parameters:   forest.Parameters{Temperature: &temperature},
	})
	require.NoError(t, err)

	got, ok, err := fs.GetRoot(root.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "gpt-4", got.Config.Model)
	require.Equal(t, "be brief", got.Config.SystemPrompt)
	require.NotNil(t, got.Config.Parameters.Temperature)
	require.Equal(t, 0.7, *got.Config.Parameters.Temperature)
}

func TestGetRootUnknown(t *testing.T) {
	fs, _ := openTestStore(t)

	_, ok, err := fs.GetRoot(forest.NewRootID())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateNodeRejectsUnknownParent(t *testing.T) {
	fs, _ := openTestStore(t)

	_, err := fs.CreateNode(forest.NullRoot, forest.NewNodeID(),
		forest.NewMessage(forest.RoleUser, "hi"), forest.Metadata{})
	require.True(t, errors.Is(err, forest.ErrNotFound))
}

func TestCreateNodeRootLevelRequiresRoot(t *testing.T) {
	fs, _ := openTestStore(t)

	msg := forest.NewMessage(forest.RoleUser, "hi")

	_, err := fs.CreateNode(forest.NullRoot, forest.NullNode, msg, forest.Metadata{})
	require.True(t, errors.Is(err, forest.ErrValidation))

	_, err = fs.CreateNode(forest.NewRootID(), forest.NullNode, msg, forest.Metadata{})
	require.True(t, errors.Is(err, forest.ErrNotFound))
}

func TestCreateNodeRejectsInvalidRole(t *testing.T) {
	fs, _ := openTestStore(t)
	root := mustCreateRoot(t, fs)

	_, err := fs.CreateNode(root.ID, forest.NullNode,
		forest.NewMessage("narrator", "meanwhile"), forest.Metadata{})
	require.True(t, errors.Is(err, forest.ErrValidation))
}

func TestParentChildConsistency(t *testing.T) {
	fs, _ := openTestStore(t)
	root := mustCreateRoot(t, fs)

	parent, err := fs.CreateNode(root.ID, forest.NullNode,
		forest.NewMessage(forest.RoleUser, "hi"), forest.Metadata{})
	require.NoError(t, err)

	child, err := fs.CreateNode(forest.NullRoot, parent.ID,
		forest.NewMessage(forest.RoleAssistant, "hello"), forest.Metadata{})
	require.NoError(t, err)
	require.Equal(t, parent.ID, child.ParentID)
	require.Equal(t, root.ID, child.RootID)

	got, ok, err := fs.GetNode(parent.ID)
	require.NoError(t, err)
	require.True(t, ok)

	count := 0
	for _, id := range got.ChildIDs {
		if id == child.ID {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestGetChildrenCreationOrder(t *testing.T) {
	fs, _ := openTestStore(t)
	root := mustCreateRoot(t, fs)

	parent, err := fs.CreateNode(root.ID, forest.NullNode,
		forest.NewMessage(forest.RoleUser, "hi"), forest.Metadata{})
	require.NoError(t, err)

	var want []forest.NodeID
	for _, text := range []string{"first", "second", "third"} {
		child, err := fs.CreateNode(forest.NullRoot, parent.ID,
			forest.NewMessage(forest.RoleAssistant, text), forest.Metadata{})
		require.NoError(t, err)
		want = append(want, child.ID)
	}

	children, err := fs.GetChildren(parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	for i, child := range children {
		require.Equal(t, want[i], child.ID)
	}
}

func TestGetChildrenUnknownID(t *testing.T) {
	fs, _ := openTestStore(t)

	children, err := fs.GetChildren(forest.NewNodeID())
	require.NoError(t, err)
	require.Empty(t, children)
}

func TestUpdateNodeMetadataReplaces(t *testing.T) {
	fs, _ := openTestStore(t)
	root := mustCreateRoot(t, fs)

	node, err := fs.CreateNode(root.ID, forest.NullNode,
		forest.NewMessage(forest.RoleUser, "hi"),
		forest.Metadata{Tags: []string{forest.TagUnread}})
	require.NoError(t, err)

	updated, err := fs.UpdateNodeMetadata(node.ID, node.Metadata.WithoutTag(forest.TagUnread))
	require.NoError(t, err)
	require.False(t, updated.Metadata.HasTag(forest.TagUnread))

	got, ok, err := fs.GetNode(node.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, got.Metadata.HasTag(forest.TagUnread))
	// message untouched
	require.Equal(t, "hi", got.Message.Content)
}

func TestUpdateNodeMetadataIdempotent(t *testing.T) {
	fs, _ := openTestStore(t)
	root := mustCreateRoot(t, fs)

	node, err := fs.CreateNode(root.ID, forest.NullNode,
		forest.NewMessage(forest.RoleUser, "hi"), forest.Metadata{})
	require.NoError(t, err)

	md := forest.Metadata{Tags: []string{"inactive"}}

	first, err := fs.UpdateNodeMetadata(node.ID, md)
	require.NoError(t, err)
	second, err := fs.UpdateNodeMetadata(node.ID, md)
	require.NoError(t, err)

	require.Equal(t, first.Metadata, second.Metadata)

	got, _, err := fs.GetNode(node.ID)
	require.NoError(t, err)
	require.Equal(t, first.Metadata, got.Metadata)
}

func TestUpdateNodeMetadataUnknownID(t *testing.T) {
	fs, _ := openTestStore(t)

	_, err := fs.UpdateNodeMetadata(forest.NewNodeID(), forest.Metadata{})
	require.True(t, errors.Is(err, forest.ErrNotFound))
}

func TestRecordsSurviveReopen(t *testing.T) {
	fs, dir := openTestStore(t)
	root := mustCreateRoot(t, fs)

	node, err := fs.CreateNode(root.ID, forest.NullNode,
		forest.NewMessage(forest.RoleUser, "hi"), forest.Metadata{})
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	fs2, err := Open(dir)
	require.NoError(t, err)
	defer func() {
		_ = fs2.Close()
	}()

	got, ok, err := fs2.GetNode(node.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hi", got.Message.Content)
	require.Equal(t, root.ID, got.RootID)
}

func TestHeadPointerFileIsTolerated(t *testing.T) {
	fs, dir := openTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "head"), []byte("whatever\n"), 0644))
	require.NoError(t, fs.Close())

	fs2, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, fs2.Close())
}
