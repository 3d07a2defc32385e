package config

type WorkerKeyStruct struct {
	GenerateExamsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GenerateExamsQueue: "generate_exams_queue",
}
