// Package orchestrator turns a request into one execution cycle over the
// crew's catalogs: it derives a plan (identity or LLM planner), runs the
// planned tasks sequentially or in parallel, retries failed attempts, asks
// for human feedback where a task requires it and aggregates the outcome in
// plan order.
//
// The engine talks to the outside world only through small collaborator
// interfaces (Executor, Planner, HumanInput, Recorder) so every behaviour can
// be exercised with in-process fakes.
package orchestrator
