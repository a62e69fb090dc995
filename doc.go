// Package userbase is a user-management and authentication service: it
// registers accounts, verifies credentials against bcrypt hashes, issues
// stateless HS256 bearer tokens, and gates the user CRUD endpoints behind
// declarative role and self-match policies.
//
// Authentication flow:
//   - Auther.Login resolves a combined username-or-email identifier through
//     the Users store, compares the password hash, and hands the resulting
//     Principal to TokenService for signing. Every failure shape returns the
//     same InvalidCredentials error.
//   - Guard.Authenticate validates incoming bearer tokens and reloads the
//     user record by token subject, so role edits and account disablement
//     apply on the very next request without re-login. Tokens carry identity
//     only, never roles.
//
// Authorization:
//   - Policies are small declarative values (RequireRole, RequireSelfID,
//     RequireSelfUsername) composed with AnyOf/AllOf and evaluated by
//     Guard.Require before the handler body runs. Missing principals fail
//     Unauthenticated; failed policies fail Forbidden.
package userbase
