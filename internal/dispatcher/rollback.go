package dispatcher

import "github.com/kramerology/vod2tube/internal/model"

// rollbackTarget implements §4.1's five rollback rules. checkpoint is the
// job's stage after the active->Pending* resume-after-crash normalization;
// rollbackTarget inspects the artifact paths recorded so far and, if an
// upstream artifact this checkpoint depends on is missing, returns the
// earlier checkpoint that produces it. ok is false when no rollback is
// needed — checkpoint is internally consistent and driving may proceed.
func rollbackTarget(checkpoint model.Stage, job *model.Job) (target model.Stage, ok bool) {
	switch checkpoint {
	case model.PendingRenderingChat:
		if job.VodFilePath == "" {
			return model.Pending, true
		}
		if job.ChatTextFilePath == "" {
			return model.PendingDownloadChat, true
		}
	case model.PendingCombining:
		if job.VodFilePath == "" {
			return model.Pending, true
		}
		if job.ChatVideoFilePath == "" {
			return model.PendingRenderingChat, true
		}
	case model.PendingUpload:
		if job.FinalVideoFilePath == "" {
			return model.PendingCombining, true
		}
	}
	return checkpoint, false
}
