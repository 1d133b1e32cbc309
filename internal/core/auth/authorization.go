package auth

import "slices"

// AdminPermission allows managing microfrontends and feature flags.
const AdminPermission = "portal:admin"

// =============================================================================
// Permission Checks
// =============================================================================

// HasPermission checks if the caller holds the permission.
func HasPermission(ctx Context, name string) bool {
	return slices.Contains(ctx.Permissions, name)
}

// =============================================================================
// Administration
// =============================================================================

// CanManageMicrofrontends checks if the caller can create, update or delete
// microfrontend records and reload the registry.
func CanManageMicrofrontends(ctx Context) bool {
	return ctx.Authenticated && HasPermission(ctx, AdminPermission)
}

// CanManageFeatureFlags checks if the caller can change feature flags.
func CanManageFeatureFlags(ctx Context) bool {
	return ctx.Authenticated && HasPermission(ctx, AdminPermission)
}
