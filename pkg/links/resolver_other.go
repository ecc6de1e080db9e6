//go:build !unix && !windows

package links

var platformResolver Resolver
