package cli

import (
	"context"
	"fmt"

	"github.com/go-skynet/inpaintd/core/application"
	cliContext "github.com/go-skynet/inpaintd/core/cli/context"
	"github.com/go-skynet/inpaintd/core/config"
	"github.com/go-skynet/inpaintd/core/http"
	"github.com/go-skynet/inpaintd/internal"
	"github.com/go-skynet/inpaintd/pkg/signals"
	"github.com/mudler/xlog"
)

type RunCMD struct {
	PipelineFlags `embed:""`

	Address                string `env:"INPAINTD_ADDRESS,ADDRESS" default:":5000" help:"Bind address for the API server" group:"api"`
	UploadLimit            int    `env:"INPAINTD_UPLOAD_LIMIT,UPLOAD_LIMIT" default:"15" help:"Default upload-limit in MB" group:"api"`
	DisableMetricsEndpoint bool   `env:"INPAINTD_DISABLE_METRICS_ENDPOINT,DISABLE_METRICS_ENDPOINT" default:"false" help:"Disable the /metrics endpoint" group:"api"`

	ArchiveDir        string `env:"INPAINTD_ARCHIVE_DIR,ARCHIVE_DIR" type:"path" help:"Directory where generated images are archived" group:"archive"`
	ArchiveS3Bucket   string `env:"INPAINTD_ARCHIVE_S3_BUCKET,ARCHIVE_S3_BUCKET" help:"S3 bucket where generated images are archived" group:"archive"`
	ArchiveS3Endpoint string `env:"INPAINTD_ARCHIVE_S3_ENDPOINT,ARCHIVE_S3_ENDPOINT" help:"Custom S3 endpoint, e.g. MinIO" group:"archive"`
	ArchiveS3Region   string `env:"INPAINTD_ARCHIVE_S3_REGION,ARCHIVE_S3_REGION,AWS_REGION" help:"S3 region" group:"archive"`
	ArchiveS3KeyID    string `env:"INPAINTD_ARCHIVE_S3_ACCESS_KEY_ID,AWS_ACCESS_KEY_ID" help:"S3 access key id" group:"archive"`
	ArchiveS3Secret   string `env:"INPAINTD_ARCHIVE_S3_SECRET_ACCESS_KEY,AWS_SECRET_ACCESS_KEY" help:"S3 secret access key" group:"archive"`

	Version bool
}

func (r *RunCMD) Run(ctx *cliContext.Context) error {
	if r.Version {
		fmt.Println(internal.Version)
		return nil
	}

	opts, err := r.appOptions()
	if err != nil {
		return err
	}
	opts = append(opts,
		config.WithContext(context.Background()),
		config.WithAddress(r.Address),
		config.WithUploadLimitMB(r.UploadLimit),
		config.WithArchiveDir(r.ArchiveDir),
		config.WithArchiveS3(r.ArchiveS3Bucket, r.ArchiveS3Endpoint, r.ArchiveS3Region),
		config.WithArchiveS3Credentials(r.ArchiveS3KeyID, r.ArchiveS3Secret),
	)
	if r.DisableMetricsEndpoint {
		opts = append(opts, config.DisableMetricsEndpoint)
	}

	app, err := application.New(opts...)
	if err != nil {
		return fmt.Errorf("failed basic startup tasks with error %s", err.Error())
	}

	signals.RegisterGracefulTerminationHandler(func() {
		if err := app.Shutdown(context.Background()); err != nil {
			xlog.Error("error while stopping the diffusion runtime", "error", err)
		}
	})

	appHTTP, err := http.API(app)
	if err != nil {
		xlog.Error("error during HTTP App construction", "error", err)
		return err
	}

	xlog.Info("inpaintd is started and running", "address", r.Address)

	return appHTTP.Start(r.Address)
}
