package ident

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// rootNamespace seeds every module namespace. It never changes: output ids
// must stay stable across releases for modules already imported downstream.
var rootNamespace = uuid.MustParse("ee9acc6e-b94a-472a-b44d-84dc9ca11b87")

// Context carries the per-run identity state previously kept in globals:
// the module namespace, the slug registry and the temp workspace path.
type Context struct {
	namespace uuid.UUID
	workDir   string
	ownsDir   bool
	slugs     []string
}

// NewContext derives the module namespace from the source package's internal
// name and creates a temporary workspace for staged output.
func NewContext(moduleName string) (*Context, error) {
	dir, err := os.MkdirTemp("", "convertfoundry_")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	ctx := NewContextAt(moduleName, dir)
	ctx.ownsDir = true
	return ctx, nil
}

// NewContextAt is NewContext with a caller-owned workspace directory.
func NewContextAt(moduleName, workDir string) *Context {
	return &Context{
		namespace: uuid.NewSHA1(rootNamespace, []byte(moduleName)),
		workDir:   workDir,
	}
}

// Namespace returns the module namespace UUID (the module element's own id).
func (c *Context) Namespace() uuid.UUID { return c.namespace }

// WorkDir returns the temp workspace all staged files are written under.
func (c *Context) WorkDir() string { return c.workDir }

// Close removes the workspace if this context created it.
func (c *Context) Close() error {
	if !c.ownsDir || c.workDir == "" {
		return nil
	}
	dir := c.workDir
	c.workDir = ""
	return os.RemoveAll(dir)
}

// ID derives the deterministic identifier for a source record. Role strings
// distinguish multiple outputs derived from one source record (for example a
// token and its vision element).
func (c *Context) ID(parts ...string) string {
	name := ""
	for _, part := range parts {
		name += part
	}
	return uuid.NewSHA1(c.namespace, []byte(name)).String()
}

// UniqueSlug registers and returns a collision-free slug for base. The
// disambiguating suffix is the count of already-registered slugs containing
// the base, so a repeated name yields name0, name1, ... in input order.
func (c *Context) UniqueSlug(name string) string {
	base := Slugify(name)
	count := 0
	for _, used := range c.slugs {
		if strings.Contains(used, base) {
			count++
		}
	}
	slug := fmt.Sprintf("%s%d", base, count)
	c.slugs = append(c.slugs, slug)
	return slug
}
