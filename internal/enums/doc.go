// Package enums defines the closed sets that travel across the broker's
// bus protocol: roles, statuses, exit codes, per-package info, filters,
// groups, restart kinds and error codes.
//
// Every enum has a total, bijective mapping to a kebab-case wire token
// (e.g. RoleInstallPackages <-> "install-packages"). Sets of values that
// may co-occur (Filter, Group, TransactionFlag, Provides, and the
// per-transaction Role advertisement on the control surface) share one
// generic Bitfield[T] type instead of a bespoke bitfield per enum.
package enums
