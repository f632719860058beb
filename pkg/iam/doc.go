// Package iam (Identity and Access Management) provides the multi-tenant
// authentication and authorization core of the Konnected identity service.
//
// # Overview
//
// The iam package is organized into sub-packages that work together:
//
//   - iam/auth        — JWT access/refresh tokens, credential verification,
//     tenant resolution, and the authentication/authorization gate
//   - iam/tenant      — Tenant entity and organization onboarding
//   - iam/user        — Per-tenant user entity and admin user management
//   - iam/rbac        — Roles, permissions, and their tenant-scoped joins
//   - iam/invitation  — Single-use, expiring invitations for onboarding users
//
// # Architecture
//
// Each sub-domain follows the same layered layout:
//
//	HTTP Handler (<ctx>api)  →  Service (<ctx>srv)  →  Repository Port  →  Infrastructure (<ctx>infra)
//
// and exposes its own error registry ("AUTH", "TENANT", "USER", "RBAC",
// "INVITATION"), domain entities with rich methods, DTOs for API responses,
// and repository interfaces.
//
// # Multi-Tenancy
//
// Every user, role, permission, and invitation belongs to exactly one tenant.
// An email can exist in multiple tenants independently. Every request to a
// tenant-scoped route carries the claimed tenant in the x-tenant-id header;
// the authorization gate cross-checks it against the tenant claim baked into
// the access token, so a credential issued for one tenant can never authorize
// access to another tenant's data. All storage queries are tenant-scoped in
// the query itself, never filtered after fetch.
//
// # Tokens
//
// Access tokens are short-lived HMAC-signed JWTs carrying
// {user_id, tenant_id, email, roles}. Refresh tokens are long-lived JWTs that
// are additionally persisted server-side and consumed atomically on first
// use, so a presented refresh token can never be replayed.
package iam
