package domain

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"hdlvet.dev/pkg/hdlvet/internal/adapter"
	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// checkWorkers is the fan-out of one diagnostics request: the compile
// chain and the style checker, nothing else.
const checkWorkers = 2

// Project bundles the database and orchestrator for one project root.
type Project struct {
	Root  string
	DB    *Database
	Orc   *Orchestrator
	Style *StyleChecker
}

// NewProject wires a project from its root, database and compiler.
func NewProject(root string, db *Database, builder adapter.CompilerAdapter) *Project {
	return &Project{
		Root:  root,
		DB:    db,
		Orc:   NewOrchestrator(db, builder),
		Style: NewStyleChecker(),
	}
}

// CheckPath answers one user-facing "get diagnostics for this path"
// request. It forks exactly two parallel tasks, the compile chain and
// the independent style checker, joins both and merges the results
// with the diagnostics accumulated in the database for the path.
func (p *Project) CheckPath(ctx context.Context, path m.Path) ([]m.Diagnostic, error) {
	var (
		mu    sync.Mutex
		diags []m.Diagnostic
	)

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(checkWorkers)

	group.Go(func() error {
		built := p.Orc.BuildWithDependencies(path)

		mu.Lock()
		diags = append(diags, built...)
		mu.Unlock()

		return nil
	})

	group.Go(func() error {
		styled := p.Style.Check(path)

		mu.Lock()
		diags = append(diags, styled...)
		mu.Unlock()

		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	diags = append(diags, p.DB.Diagnostics(path)...)

	return diags, nil
}

// Container is the explicit owning map from project root to project
// instance. It replaces any process-wide registry; the CLI holds one
// container and passes it down by handle.
type Container struct {
	mu       sync.Mutex
	projects map[string]*Project
	open     func(root string) *Project
}

// NewContainer builds a container; open is invoked once per new root.
func NewContainer(open func(root string) *Project) *Container {
	return &Container{
		projects: make(map[string]*Project),
		open:     open,
	}
}

// Get returns the project for a root, creating it on first use.
func (c *Container) Get(root string) *Project {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.projects[root]; ok {
		return p
	}

	p := c.open(root)
	c.projects[root] = p

	return p
}

// Roots lists the active project roots.
func (c *Container) Roots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	roots := make([]string, 0, len(c.projects))
	for root := range c.projects {
		roots = append(roots, root)
	}

	return roots
}
