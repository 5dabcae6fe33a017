// Package testutil holds test helpers shared by the bot's packages.
//
// Components started through T(t).Setup are stopped when the test ends:
//
//	func TestPoller(t *testing.T) {
//	    testutil.T(t).Setup(poller)
//	    testutil.T(t).Eventually("job delivered", func() bool { return len(d.Replies()) == 1 })
//	}
package testutil
