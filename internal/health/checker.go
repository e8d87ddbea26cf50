// Package health provides reachability checks for the plugin's autoconf mode.
package health

import (
	"context"
	"fmt"

	"github.com/sbaerlocher/cgmetrics/internal/cgminer"
)

// ComponentChecker defines the interface for individual component health checks.
type ComponentChecker interface {
	CheckHealth(ctx context.Context) error
	ComponentName() string
}

// Checker runs registered component checks in registration order.
type Checker struct {
	components []ComponentChecker
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{}
}

func (c *Checker) Register(checker ComponentChecker) {
	c.components = append(c.components, checker)
}

// Check returns the first failing component check, or nil when all pass.
func (c *Checker) Check(ctx context.Context) error {
	for _, component := range c.components {
		if err := component.CheckHealth(ctx); err != nil {
			return fmt.Errorf("component %s not ready: %w", component.ComponentName(), err)
		}
	}
	return nil
}

// DaemonChecker checks that the mining daemon answers its API.
type DaemonChecker struct {
	client *cgminer.Client
}

// NewDaemonChecker creates a checker backed by the given API client.
func NewDaemonChecker(client *cgminer.Client) *DaemonChecker {
	return &DaemonChecker{client: client}
}

func (dc *DaemonChecker) ComponentName() string {
	return "cgminer API"
}

func (dc *DaemonChecker) CheckHealth(ctx context.Context) error {
	if dc.client == nil {
		return fmt.Errorf("API client not initialized")
	}

	// The version command is the cheapest request the daemon answers.
	if _, err := dc.client.Version(ctx); err != nil {
		return fmt.Errorf("API connectivity check failed: %w", err)
	}

	return nil
}
