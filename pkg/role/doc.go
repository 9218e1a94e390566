// Package role holds the fixed role catalogue and the user-role store.
//
// The catalogue is seeded by migration: EMPLOYEE=1, SECURITY=2, CONFIRMING=3
// and ADMIN=4.
// ALL=0 is only a listing filter and is never stored or assigned.
//
// Authorization reads the store, not the token. A role granted or revoked
// takes effect on the caller's next request:
//
//	err := database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
//		if err := role.RequireAdmin(ctx, tx, roles, caller.ID); err != nil {
//			return err
//		}
//		return roles.AssignRoles(ctx, tx, userID, []role.Role{role.Employee})
//	})
//
// RoleService exposes the same checks for the /roles routes in pkg/role/api.
package role
