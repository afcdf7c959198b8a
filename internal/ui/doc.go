// Package ui is the interactive terminal console: a bubbletea program that
// routes between login, dashboard, transaction list, pending approvals,
// detail, and create screens.
//
// Every screen mount bumps a generation counter. Asynchronous results are
// tagged with the generation that issued them and dropped when the user
// has since navigated elsewhere, so a late response never mutates a view
// that is no longer shown. Routing decisions come from session.Guard;
// transitions go through lifecycle.Controller.
package ui
