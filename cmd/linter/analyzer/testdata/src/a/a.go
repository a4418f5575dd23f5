package a

import (
	"log"

	"service"
)

func discarded(r *service.Recorder, s service.Sample) {
	r.Record(s) // want "error returned by r.Record is not checked"
}

func blank(r *service.Recorder, s service.Sample) {
	_ = r.Record(s) // want "error returned by r.Record is assigned to blank identifier"
}

func throughInterface(r service.SampleRecorder, s service.Sample) {
	r.Record(s) // want "error returned by r.Record is not checked"
}

func async(r *service.Recorder, s service.Sample) {
	go r.Record(s)    // want "error returned by r.Record is lost in go statement"
	defer r.Record(s) // want "error returned by r.Record is lost in defer statement"
}

func handled(r *service.Recorder, s service.Sample) {
	if err := r.Record(s); err != nil {
		log.Printf("sample rejected: %v", err)
	}
	err := r.Record(s)
	if err != nil {
		log.Print(err)
	}
}
