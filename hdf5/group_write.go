package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/h5out/internal/message"
	"github.com/robert-malhotra/h5out/internal/object"
)

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if !g.file.writable {
		return nil, fmt.Errorf("file is not writable")
	}

	if name == "" {
		return nil, fmt.Errorf("group name cannot be empty")
	}

	newPath := path.Join(g.path, name)
	if g.path == "/" {
		newPath = "/" + name
	}

	if _, exists := g.file.groups[newPath]; exists {
		return nil, fmt.Errorf("object already exists: %s", newPath)
	}
	if _, exists := g.file.datasets[newPath]; exists {
		return nil, fmt.Errorf("object already exists: %s", newPath)
	}

	// Write an empty group object header
	groupMessages := object.NewEmptyGroupHeader()
	headerSize := object.HeaderSizeWithMinChunk(g.file.writer, groupMessages, object.MinGroupChunkSize)
	groupAddr := g.file.allocate(int64(headerSize))

	w := g.file.writer.At(int64(groupAddr))
	if _, err := object.WriteHeaderWithMinChunk(w, groupMessages, object.MinGroupChunkSize); err != nil {
		return nil, fmt.Errorf("writing group header: %w", err)
	}

	// Hard-link the new group into this one
	if err := g.addLink(message.NewHardLink(name, groupAddr)); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}

	newGroup := &Group{
		file: g.file,
		path: newPath,
		addr: groupAddr,
	}
	g.file.groups[newPath] = newGroup

	return newGroup, nil
}

// CreateGroupAt creates a group at an absolute path. The parent group
// must already exist; intermediate groups are never created implicitly.
func (f *File) CreateGroupAt(groupPath string) (*Group, error) {
	if !f.writable {
		return nil, fmt.Errorf("file is not writable")
	}

	p := groupPath
	if len(p) == 0 || p[0] != '/' {
		p = "/" + p
	}

	parentPath := path.Dir(p)
	g, ok := f.groups[parentPath]
	if !ok {
		return nil, fmt.Errorf("parent group not found: %s", parentPath)
	}

	return g.CreateGroup(path.Base(p))
}

// addLink appends a link message to this group and rewrites its header.
func (g *Group) addLink(link *message.Link) error {
	if !g.file.writable {
		return fmt.Errorf("file is not writable")
	}

	for _, existing := range g.links {
		if existing.Name == link.Name {
			return fmt.Errorf("link already exists: %s", link.Name)
		}
	}

	g.links = append(g.links, link)
	return g.rewriteHeader()
}

// addAttribute appends an attribute message to this group and rewrites
// its header. An existing attribute with the same name is replaced.
func (g *Group) addAttribute(attr *message.Attribute) error {
	if !g.file.writable {
		return fmt.Errorf("file is not writable")
	}

	replaced := false
	for i, existing := range g.attrs {
		if existing.Name == attr.Name {
			g.attrs[i] = attr
			replaced = true
			break
		}
	}
	if !replaced {
		g.attrs = append(g.attrs, attr)
	}

	return g.rewriteHeader()
}

// rewriteHeader writes a fresh object header carrying all of the
// group's links and attributes, then repoints whatever referenced the
// old header. Headers cannot grow in place, so a new address is
// allocated each time.
func (g *Group) rewriteHeader() error {
	messages := object.NewGroupHeader(g.links, g.attrs)

	headerSize := object.HeaderSizeWithMinChunk(g.file.writer, messages, object.MinGroupChunkSize)
	newAddr := g.file.allocate(int64(headerSize))

	w := g.file.writer.At(int64(newAddr))
	if _, err := object.WriteHeaderWithMinChunk(w, messages, object.MinGroupChunkSize); err != nil {
		return err
	}

	oldAddr := g.addr
	g.addr = newAddr

	// The root group is referenced by the superblock; everything else
	// is referenced by a link in its parent group.
	if g.path == "/" {
		g.file.superblock.RootGroupAddress = newAddr
		return nil
	}
	return g.file.repointLink(g.path, oldAddr, newAddr)
}

// repointLink updates the parent group's link for objPath to point at
// newAddr, rewriting the parent (and transitively its ancestors).
func (f *File) repointLink(objPath string, oldAddr, newAddr uint64) error {
	parentPath := path.Dir(objPath)
	if parentPath == "" || parentPath == "." {
		parentPath = "/"
	}

	parent, ok := f.groups[parentPath]
	if !ok {
		return fmt.Errorf("parent group not found: %s", parentPath)
	}

	name := path.Base(objPath)
	found := false
	for _, link := range parent.links {
		if link.Name == name && link.ObjectAddress == oldAddr {
			link.ObjectAddress = newAddr
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("link %q not found in %s", name, parentPath)
	}

	return parent.rewriteHeader()
}
