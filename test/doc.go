/*
Package test provides integration testing infrastructure for jobtrack.

A Suite runs the real fiber app behind an httptest server on a throwaway SQLite file and
drives it through the real API client:

	s := test.NewSuite(t)
	defer s.Cleanup()

	admin := s.LoginAs(test.AdminUsername, test.AdminPassword)
	job, err := admin.CreateJob(s.Context(), types.JobRequest{WorkOrder: "WO-1", CustomerName: "Acme"})

Users for the other roles are created with CreateUser and logged in the same way.
*/
package test
