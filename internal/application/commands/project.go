package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"tracewave/internal/application"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// CreateProjectResult contains the result of creating a project
type CreateProjectResult struct {
	Project *domain.Project
	Message string
}

// CreateProjectCommand initializes a new project directory
type CreateProjectCommand struct {
	repo  ports.ProjectRepository
	Root  string
	Name  string
	Force bool
}

// NewCreateProjectCommand creates a new CreateProjectCommand
func NewCreateProjectCommand(repo ports.ProjectRepository, root, name string, force bool) *CreateProjectCommand {
	return &CreateProjectCommand{repo: repo, Root: root, Name: name, Force: force}
}

// Validate checks the command input
func (c *CreateProjectCommand) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return &application.ValidationError{Field: "root", Message: "project directory is required"}
	}
	return nil
}

// Execute creates the project
func (c *CreateProjectCommand) Execute(ctx context.Context) (*CreateProjectResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = filepath.Base(root)
	}

	p, err := c.repo.Create(root, name, c.Force)
	if err != nil {
		return nil, err
	}

	return &CreateProjectResult{
		Project: p,
		Message: fmt.Sprintf("Created project %q at %s", p.Name, p.Root),
	}, nil
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// AddClassResult contains the result of adding a class label
type AddClassResult struct {
	Class   domain.ClassLabel
	Message string
}

// AddClassCommand appends a class to the project palette
type AddClassCommand struct {
	ws    *application.Workspace
	Name  string
	Color string
}

// NewAddClassCommand creates a new AddClassCommand
func NewAddClassCommand(ws *application.Workspace, name, color string) *AddClassCommand {
	return &AddClassCommand{ws: ws, Name: name, Color: color}
}

// Validate checks the class name and color
func (c *AddClassCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &application.ValidationError{Field: "name", Message: "class name is required"}
	}
	if !hexColor.MatchString(c.Color) {
		return &application.ValidationError{Field: "color", Message: fmt.Sprintf("expected #RRGGBB, got %q", c.Color)}
	}
	return nil
}

// Execute adds the class
func (c *AddClassCommand) Execute(ctx context.Context) (*AddClassResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	class := domain.ClassLabel{Name: strings.TrimSpace(c.Name), Color: strings.ToUpper(c.Color)}
	err := c.ws.UpdateProject(func(p *domain.Project) error {
		if p.HasClass(class.Name) {
			return fmt.Errorf("class %q: %w", class.Name, application.ErrConflict)
		}
		p.Classes = append(p.Classes, class)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &AddClassResult{Class: class, Message: fmt.Sprintf("Added class %s %s", class.Name, class.Color)}, nil
}
