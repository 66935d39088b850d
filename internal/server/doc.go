// Package server exposes the manager's HTTP surface: the cluster resource
// view as JSON and Server-Sent Events, and the membership endpoints that
// feed node-added/node-removed events into the poller.
package server
