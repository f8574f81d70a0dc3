package s3

import (
	"io"
	"launchpad/session"
	"os"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

var (
	AssetBucket *oss.Bucket

	GetObjectFunc    func(string, *session.Session, ...oss.Option) (io.ReadCloser, error)
	PutObjectFunc    func(string, io.Reader, *session.Session, ...oss.Option) error
	DeleteObjectFunc func(string, *session.Session) error
)

func Bootstrap() {
	var err error
	AssetBucket, err = BuildBucketFromEnv()
	if err != nil {
		panic(err)
	}

	GetObjectFunc = GetObject
	PutObjectFunc = PutObject
	DeleteObjectFunc = DeleteObject
}

func BuildBucketFromEnv() (*oss.Bucket, error) {
	endpoint := os.ExpandEnv(os.Getenv("OSS_ENDPOINT"))
	if endpoint == "" {
		endpoint = "dummy"
	}
	accessKey := os.Getenv("OSS_ACCESS_KEY")
	secretKey := os.Getenv("OSS_SECRET_KEY")
	bucket := os.Getenv("OSS_BUCKET")
	if bucket == "" {
		bucket = "launchpad"
	}
	return BuildBucket(endpoint, accessKey, secretKey, bucket)
}

func BuildBucket(endpoint, accesskey, secretKey, bucketName string) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(endpoint, accesskey, secretKey, oss.HTTPClient(nil))
	if err != nil {
		return nil, err
	}

	bucket, err := cli.Bucket(bucketName)
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

// ObjectURL is the publicly resolvable address of an uploaded object.
func ObjectURL(key string) string {
	if AssetBucket == nil {
		return "/" + key
	}
	endpoint := strings.TrimSuffix(AssetBucket.Client.Config.Endpoint, "/")
	scheme := "https://"
	if strings.HasPrefix(endpoint, "http://") {
		scheme = "http://"
		endpoint = strings.TrimPrefix(endpoint, "http://")
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	return scheme + AssetBucket.BucketName + "." + endpoint + "/" + key
}

func GetObject(key string, s *session.Session, opts ...oss.Option) (io.ReadCloser, error) {
	childSpan := startChildSpan("get-object", key, s)
	r, err := AssetBucket.GetObject(key, opts...)
	finishChildSpan(childSpan, err)
	return r, err
}

func PutObject(key string, r io.Reader, s *session.Session, opts ...oss.Option) error {
	childSpan := startChildSpan("put-object", key, s)
	err := AssetBucket.PutObject(key, r, opts...)
	finishChildSpan(childSpan, err)
	return err
}

func DeleteObject(key string, s *session.Session) error {
	childSpan := startChildSpan("delete-object", key, s)
	err := AssetBucket.DeleteObject(key)
	finishChildSpan(childSpan, err)
	return err
}

func startChildSpan(op, key string, s *session.Session) *opentracing.Span {
	if s == nil || s.Context == nil {
		return nil
	}
	parentSpan := opentracing.SpanFromContext(s.Context)
	if parentSpan == nil {
		return nil
	}
	tracer := parentSpan.Tracer()
	sp := tracer.StartSpan(op, opentracing.ChildOf(parentSpan.Context()))
	sp.SetTag("object-key", key)
	return &sp
}

func finishChildSpan(sp *opentracing.Span, err error) {
	if sp == nil {
		return
	}
	ext.Error.Set(*sp, err != nil)
	(*sp).Finish()
}
