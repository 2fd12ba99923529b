package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListPDFsActivity)
	w.RegisterActivity(a.ExtractPagesActivity)
	w.RegisterActivity(a.BuildChunksActivity)
	w.RegisterActivity(a.EnsureCollectionActivity)
	w.RegisterActivity(a.InsertChunksActivity)
	w.RegisterActivity(a.PurgeCollectionActivity)
}
