// Package testutil provides fake tools and stores for tests.
package testutil
