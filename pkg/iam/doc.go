// Package iam stores users and answers user queries.
//
// UserRepository is the storage contract used by the registration workflow,
// login and the role service (through ExistsByID). IamService serves the
// read side: ListUsers pages through users newest first, optionally
// restricted to the holders of one role, and reports the total number of
// matching users next to the page.
//
//	svc := iam.NewIamService(db, iam.NewBunUserRepository())
//	page, err := svc.ListUsers(ctx, role.Employee, 10, 0)
package iam
