// Package worker launches and monitors the external download process for a
// single job.
//
// The Supervisor builds the yt-dlp invocation from a Request, starts the
// process in its own process group, and scans stdout while waiting on the
// process. Progress lines on stdout are parsed into monotonically
// increasing percentages, the raw stderr tail is retained as the job's error
// log, and a final exit event carries the status code. Results are reported through a
// callback; the package never touches queue state.
package worker
